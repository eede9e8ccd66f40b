package emailsvc

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
)

// consoleService prints messages instead of delivering them. Used in DEV and TEST.
type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	frontendURL      string
	logger           core.Logger
	disableOutput    bool

	// record keeps sent messages; only the mock sets it
	record bool
	mu     sync.Mutex
	sent   []core.EmailMessage
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(logger core.Logger, conf *core.Config) core.EmailService {
	return newConsoleService(logger, conf)
}

func newConsoleService(logger core.Logger, conf *core.Config) *consoleService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail(),
		subjPrefix:       "[" + conf.AppName + "] ",
		frontendURL:      conf.FrontendBaseURL,
		logger:           logger,
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc *consoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(svc.frontendURL); err != nil {
		svc.logger.Error("rendering email", errors.Wrap(err, msg.TemplateName))
		return
	}
	if msg.HasRecipients() && msg.HasContent() {
		svc.send(*msg)
		if svc.record {
			svc.mu.Lock()
			svc.sent = append(svc.sent, *msg)
			svc.mu.Unlock()
		}
	}
}

func (svc *consoleService) send(msg core.EmailMessage) {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	_, _ = fmt.Fprintf(body, "BCC: %s\r\n", joinAddresses(msg.Bcc))

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())

	if w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain"}}); err == nil {
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)
	}
	if msg.HTMLContent != "" {
		if w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html"}}); err == nil {
			_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
		}
	}
	_ = altW.Close()

	if !svc.disableOutput {
		log.Println(body.String())
	}
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock sends synchronously and records what it sent.
type ConsoleServiceMock struct {
	*consoleService
}

func NewConsoleServiceMock(logger core.Logger, conf *core.Config) *ConsoleServiceMock {
	svc := newConsoleService(logger, conf)
	svc.disableOutput = true
	svc.record = true
	return &ConsoleServiceMock{consoleService: svc}
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		// run synchronously
		svc.sendMessage(msg)
	}
}

// SentMessages returns a copy of the messages sent so far.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}
