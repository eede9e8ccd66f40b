// Package logsvc reports log entries to Rollbar and echoes them to a std logger.
package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	l := &RollbarLogger{std: std}
	l.Enable(!conf.Debug && conf.RollbarToken != "")
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry is a log call split into what Rollbar understands.
type entry struct {
	err    error
	fields map[string]interface{}
	id     *user.Identity
}

// parse sorts args into an error, merged key/value fields and the first identity.
// Anything else is kept under "args".
func parse(args []interface{}) entry {
	var e entry
	var extra []interface{}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			if e.err == nil {
				e.err = v
				continue
			}
			extra = append(extra, v.Error())
		case map[string]interface{}:
			if e.fields == nil {
				e.fields = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.fields[k] = val
			}
		case user.Identity:
			if e.id == nil {
				id := v
				e.id = &id
			}
		default:
			extra = append(extra, v)
		}
	}
	if e.id != nil {
		if e.fields == nil {
			e.fields = make(map[string]interface{}, 1)
		}
		e.fields["role"] = string(e.id.Role)
	}
	if len(extra) > 0 {
		if e.fields == nil {
			e.fields = make(map[string]interface{}, 1)
		}
		e.fields["args"] = extra
	}
	return e
}

// rollbarArgs builds the rollbar.Log arguments. Rollbar drops the message of
// error items, so it travels in the custom data instead.
func (e entry) rollbarArgs(msg string) []interface{} {
	if e.err == nil {
		if e.fields == nil {
			return []interface{}{msg}
		}
		return []interface{}{msg, e.fields}
	}
	custom := make(map[string]interface{}, len(e.fields)+1)
	for k, v := range e.fields {
		custom[k] = v
	}
	custom["message"] = msg
	return []interface{}{e.err, custom}
}

// String renders the entry as " err=... k=v" with sorted keys.
func (e entry) String() string {
	var b strings.Builder
	if e.err != nil {
		fmt.Fprintf(&b, " err=%q", e.err.Error())
	}
	if e.id != nil {
		fmt.Fprintf(&b, " user=%s", e.id.ID)
	}
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.fields[k])
	}
	return b.String()
}

func (l RollbarLogger) log(level, label, msg string, args []interface{}) {
	e := parse(args)
	if e.id != nil {
		rollbar.SetPerson(e.id.ID, e.id.Name, e.id.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, e.rollbarArgs(msg)...)
	l.std.Printf("%s %s%s", label, msg, e)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(rollbar.DEBUG, "DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(rollbar.INFO, "INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(rollbar.WARN, "WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(rollbar.ERR, "ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, "FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
