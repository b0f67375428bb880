// Package nav decides which top-level view is reachable. Nothing else in the
// client may make that decision; the gate is re-evaluated on every identity
// change.
package nav

import "github.com/fakeyudi/cropscan/internal/auth"

// View is a top-level client view.
type View int

const (
	ViewLoading View = iota
	ViewLogin
	ViewRegister
	ViewDashboard
	ViewDetect
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewDashboard:
		return "dashboard"
	case ViewDetect:
		return "detect"
	}
	return "unknown"
}

// Resolve maps a requested view to the one actually permitted. While the
// session is still initializing only the loading placeholder is reachable.
// Once resolved, anonymous-only views redirect authenticated users home, and
// authenticated views redirect anonymous users to the login entry.
func Resolve(phase auth.Phase, authenticated bool, requested View) View {
	if phase == auth.PhaseInitializing {
		return ViewLoading
	}
	if authenticated {
		switch requested {
		case ViewLoading, ViewLogin, ViewRegister:
			return ViewDashboard
		}
		return requested
	}
	switch requested {
	case ViewLoading, ViewDashboard, ViewDetect:
		return ViewLogin
	}
	return requested
}
