package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

// Notifier is the subset of the Honeybadger client used by the middleware.
type Notifier interface {
	Notify(err interface{}, extra ...interface{}) (string, error)
}

// NewHoneybadger configures a Honeybadger client, or returns nil when apiKey is empty.
func NewHoneybadger(apiKey, env string) Notifier {
	if apiKey == "" {
		return nil
	}
	return honeybadger.New(honeybadger.Configuration{APIKey: apiKey, Env: env})
}

// HoneybadgerMiddleware reports panics, 5xx answers and errors attached with c.Error.
// With a nil notifier it only passes requests through.
// A panic is reported and re-raised so gin.Recovery writes the response.
func HoneybadgerMiddleware(n Notifier, log *logrus.Entry) gin.HandlerFunc {
	if n == nil {
		log.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return func(c *gin.Context) { c.Next() }
	}
	log.Info("Honeybadger error reporting is enabled.")

	return func(c *gin.Context) {
		route := fmt.Sprintf("%s %s", c.Request.Method, c.FullPath())
		defer func() {
			if rec := recover(); rec != nil {
				_, _ = n.Notify(fmt.Sprintf("panic: %s: %v", route, rec), c.Request,
					honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				log.Errorf("recovered from panic on %s, notified Honeybadger: %v", route, rec)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		for _, e := range c.Errors {
			_, _ = n.Notify(e.Err, c.Request, honeybadger.Context{"route": route, "status": status}, honeybadger.Tags{"http"})
		}
		if status >= 500 && len(c.Errors) == 0 {
			_, _ = n.Notify(fmt.Sprintf("HTTP %d: %s", status, route), c.Request, honeybadger.Tags{"5XX", "http"})
		}
		if status >= 500 || len(c.Errors) > 0 {
			log.Warnf("Honeybadger reported HTTP %d for %s", status, route)
		}
	}
}
