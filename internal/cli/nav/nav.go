package nav

import (
	"fmt"
	"sync"
)

// Navigator moves the client to another screen
type Navigator interface {
	Push(route string)
}

// NavigatorFunc adapts a function to the Navigator interface
type NavigatorFunc func(route string)

// Push calls f(route)
func (f NavigatorFunc) Push(route string) { f(route) }

// Home is the landing route for a locale
func Home(locale string) string {
	return fmt.Sprintf("/%s/", locale)
}

// EmailLogin is the email-code login route for a locale
func EmailLogin(locale string) string {
	return fmt.Sprintf("/%s/user/email-code", locale)
}

// ShareCodeLogin is the share-code login route for a locale
func ShareCodeLogin(locale string) string {
	return fmt.Sprintf("/%s/user/share-code", locale)
}

// Recorder is a Navigator that remembers every route it was sent to
type Recorder struct {
	mu     sync.Mutex
	routes []string
}

// Push records route
func (r *Recorder) Push(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Routes returns the recorded routes in order
func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Last returns the most recent route, or "" if none
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
