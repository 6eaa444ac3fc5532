package game

import "fmt"

// ErrorKind classifies an engine error per the three kinds the
// specification distinguishes: user input rejected by current rules,
// malformed transport payloads (never actually reaches this package,
// but the kind exists so callers can report it uniformly), and
// programmer-error invariant violations that are fatal to the hand.
type ErrorKind int

const (
	KindUser ErrorKind = iota
	KindTransport
	KindInvariant
)

func (k ErrorKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindTransport:
		return "transport"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// EngineError wraps a sentinel error with the kind of failure it
// represents, so transports can decide how to surface it (§7) without
// string-matching messages.
type EngineError struct {
	Kind ErrorKind
	Err  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func userErr(err error) *EngineError {
	return &EngineError{Kind: KindUser, Err: err}
}

func invariantErr(err error) *EngineError {
	return &EngineError{Kind: KindInvariant, Err: err}
}

// Sentinel user errors (§7.1). Compare with errors.Is.
var (
	ErrTableFull          = fmt.Errorf("table is full")
	ErrAlreadySeated      = fmt.Errorf("player already seated at this table")
	ErrPlayerNotFound     = fmt.Errorf("player not found at this table")
	ErrNotYourTurn        = fmt.Errorf("it is not this player's turn")
	ErrHandNotActive      = fmt.Errorf("no hand is currently active")
	ErrPlayerNotActive    = fmt.Errorf("player is not active in the current hand")
	ErrCannotCheck        = fmt.Errorf("cannot check: a bet is outstanding")
	ErrCannotCall         = fmt.Errorf("cannot call: there is nothing to call")
	ErrCannotBet          = fmt.Errorf("cannot bet: a bet is already outstanding, raise instead")
	ErrCannotRaise        = fmt.Errorf("cannot raise: no bet to raise, stack too short for a full raise, or action not reopened")
	ErrBetBelowMinimum    = fmt.Errorf("bet is below the table minimum")
	ErrRaiseBelowMinimum  = fmt.Errorf("raise is below the minimum raise")
	ErrAmountExceedsStack = fmt.Errorf("amount exceeds player's stack")
	ErrUnknownAction      = fmt.Errorf("unknown action")
)

// Sentinel invariant (programmer-error) violations (§7.3).
var (
	ErrInvalidHandSize   = fmt.Errorf("hand evaluation requires 5-7 cards")
	ErrDeckExhausted     = fmt.Errorf("dealt from an empty deck")
	ErrPotValidation     = fmt.Errorf("pot amounts do not reconcile with player contributions")
	ErrNoEligibleWinners = fmt.Errorf("pot has no eligible winners")
)
