package adxdata

import (
	"os"
	"path/filepath"
	"runtime"
)

const none = "[none]"

// ClientDetails carries the identity strings the service records for tracing. They appear
// in the service's journal (e.g. .show queries) and carry no authorization weight.
type ClientDetails struct {
	applicationForTracing string
	userForTracing        string
}

func NewClientDetails(application string, user string) *ClientDetails {
	return &ClientDetails{
		applicationForTracing: application,
		userForTracing:        user,
	}
}

// ApplicationForTracing returns the application name, defaulting to the process name.
func (c *ClientDetails) ApplicationForTracing() string {
	if c.applicationForTracing == "" {
		c.applicationForTracing = filepath.Base(os.Args[0])
	}
	return c.applicationForTracing
}

// UserForTracing returns the user name, defaulting to the OS user running the process.
func (c *ClientDetails) UserForTracing() string {
	if c.userForTracing == "" {
		user := os.Getenv("USERNAME")
		if user == "" {
			user = os.Getenv("USER")
		}
		if user == "" {
			user = none
		}
		c.userForTracing = user
	}
	return c.userForTracing
}

// ClientVersionForTracing identifies this client library and runtime.
func (c *ClientDetails) ClientVersionForTracing() string {
	return "ADX.Go.Client:" + version + "|Runtime.Go:" + runtime.Version()
}
