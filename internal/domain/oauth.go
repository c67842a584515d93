package domain

// Mode distinguishes a plain login flow from an explicit signup flow. It is
// chosen by the client before the provider redirect and carried through the
// state payload.
type Mode string

const (
	ModeNone   Mode = ""
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

// StateData is the payload stored under an issued anti-CSRF state
type StateData struct {
	Valid bool `json:"valid"`
	Mode  Mode `json:"mode,omitempty"`
}

// ProviderProfile is the normalized identity a provider adapter extracts
// from its raw user-info response. It lives only within one request.
type ProviderProfile struct {
	Provider     string `json:"provider"`
	ProviderID   string `json:"providerId"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`

	// Mode recovered from the consumed state, tagged on by Run
	Mode Mode `json:"-"`
}

// AuthorizationData is returned to the client before the provider redirect
type AuthorizationData struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// TokenPair holds a freshly issued access/refresh pair
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CallbackOutcome enumerates the terminal states of a provider callback
type CallbackOutcome int

const (
	// OutcomeNeedsSignup means no identity exists yet; the client received
	// a signup token and must confirm registration explicitly
	OutcomeNeedsSignup CallbackOutcome = iota
	// OutcomeSignupComplete means the identity was created because the
	// client requested signup mode up front; no tokens are issued
	OutcomeSignupComplete
	// OutcomeAuthenticated means an existing identity logged in and
	// received tokens
	OutcomeAuthenticated
)

// CallbackResult is the union of possible callback responses
type CallbackResult struct {
	Outcome     CallbackOutcome
	SignupToken string
	User        *User
	Tokens      *TokenPair
}

// AuthenticatedResult is returned by signup and refresh flows
type AuthenticatedResult struct {
	User   *User
	Tokens *TokenPair
}
