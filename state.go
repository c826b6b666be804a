package session

// AuthPhase is the tagged lifecycle state of the session engine.
type AuthPhase string

const (
	PhaseIdle            AuthPhase = "idle"
	PhaseResolving       AuthPhase = "resolving"
	PhaseAuthenticated   AuthPhase = "authenticated"
	PhaseUnauthenticated AuthPhase = "unauthenticated"
)

// AuthState is the externally visible session snapshot. IsAuthenticated is
// true only when the most recently completed resolution produced a
// non-expired token and a valid identity; it is never derived from a
// cached user object alone.
type AuthState struct {
	User            *UserIdentity `json:"user,omitempty"`
	IsAuthenticated bool          `json:"is_authenticated"`
	IsLoading       bool          `json:"is_loading"`
}

// phaseTransitions is the allowed transition table. Sign-out bypasses the
// table and forces unauthenticated from any phase.
var phaseTransitions = map[AuthPhase]map[AuthPhase]struct{}{
	PhaseIdle: {
		PhaseResolving: {},
	},
	PhaseResolving: {
		PhaseAuthenticated:   {},
		PhaseUnauthenticated: {},
		PhaseResolving:       {},
	},
	PhaseAuthenticated: {
		PhaseResolving:       {},
		PhaseUnauthenticated: {},
	},
	PhaseUnauthenticated: {
		PhaseResolving: {},
	},
}

func canTransition(from, to AuthPhase) bool {
	allowed, ok := phaseTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
