package nakama

const (
	// RpcCreateMatch creates a tennis match and hands the caller an owner scorer token.
	RpcCreateMatch = "create_match"
	// RpcListMatches lists unfinished tennis matches.
	RpcListMatches = "list_matches"
	// RpcScorerToken issues an extra scorer token. Only the match owner may call it.
	RpcScorerToken = "scorer_token"

	// MatchNameTennis is the authoritative match handler name registered with Nakama.
	MatchNameTennis = "tennis_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpScorePoint int64 = 1
	OpUndo       int64 = 2
	OpReset      int64 = 3
	OpNewMatch   int64 = 4

	// Server -> Client events
	OpMatchSnapshot int64 = 101
	OpMatchEvent    int64 = 102
	OpError         int64 = 103
)

// Error codes carried in OpError payloads.
const (
	ErrCodeBadRequest = 1
	ErrCodeForbidden  = 2
	ErrCodeNoMatch    = 3
	ErrCodeRejected   = 4
	ErrCodeThrottled  = 5
)

// Join metadata.
const (
	MetaRole  = "role"
	MetaToken = "token"

	RoleScorer    = "scorer"
	RoleSpectator = "spectator"
)

// Match params passed to nk.MatchCreate.
const (
	ParamNameA    = "name_a"
	ParamNameB    = "name_b"
	ParamFormat   = "format"
	ParamServer   = "server"
	ParamOwner    = "owner"
	ParamAutoplay = "autoplay"
)

// Runtime status codes used with runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnauthenticated    = 16
)
