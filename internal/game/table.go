package game

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"poker-platform/pkg/poker"
)

// TableConfig fixes a table's seat count, stakes, and pacing for its
// lifetime. Defaults match the reference deployment's house rules
// (§6, §10.3).
type TableConfig struct {
	MaxPlayers    int
	SmallBlind    int64
	BigBlind      int64
	StartingStack int64
	ActionTimeout time.Duration

	// PayoutDisplay holds the table at StagePayouts so clients can
	// render the award before the board clears.
	PayoutDisplay time.Duration
	// InterHandDelay holds the table at StageHandCleanup before the
	// next hand deals, giving players a beat between hands.
	InterHandDelay time.Duration

	// EmptyTableReapInterval is how long a table may sit with zero
	// seated players before the registry stops and removes it.
	EmptyTableReapInterval time.Duration
}

func (c *TableConfig) applyDefaults() {
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 5
	}
	if c.SmallBlind == 0 {
		c.SmallBlind = 5
	}
	if c.BigBlind == 0 {
		c.BigBlind = 10
	}
	if c.StartingStack == 0 {
		c.StartingStack = 1000
	}
	if c.ActionTimeout == 0 {
		c.ActionTimeout = 20 * time.Second
	}
	if c.PayoutDisplay == 0 {
		c.PayoutDisplay = 3 * time.Second
	}
	if c.InterHandDelay == 0 {
		c.InterHandDelay = 2 * time.Second
	}
	if c.EmptyTableReapInterval == 0 {
		c.EmptyTableReapInterval = 5 * time.Minute
	}
}

// eventKind tags the table's mailbox messages. Every externally
// triggered transition -- a join, a leave, a submitted action, or a
// fired action timer -- arrives as one of these rather than as a
// direct method call running on its own goroutine, so the table's
// entire state machine is only ever touched by the single owner
// goroutine running gameLoop (§5).
type eventKind int

const (
	eventJoin eventKind = iota
	eventLeave
	eventAction
	eventActionTimeout
	eventPacingTimer
	eventView
)

type tableEvent struct {
	kind eventKind

	playerID string
	name     string
	buyIn    int64

	action Action

	timeoutSeat int
	timeoutGen  uint64

	viewObserver string
	viewReply    chan View

	reply chan error
}

// Table is a single hand-dealing actor: one owner goroutine, reached
// only through its mailbox. Every exported method sends a tableEvent
// and blocks for the reply, so callers never observe partial state.
type Table struct {
	ID     string
	config TableConfig

	seats     []*Player
	dealer    int
	handNo    int
	rngSource poker.Shuffler
	deck      *poker.Deck
	evaluator *poker.HandEvaluator

	stage      Stage
	board      []poker.Card
	round      *BettingRound
	actingSeat int
	pots       []*Pot
	winners    []AwardResult

	timerGen uint64

	pacing     bool
	pacingGen  uint64
	pacingNext Stage

	onStateChange   func(TableSnapshot)
	onActionRequest func(seatIdx int, opts BettingOptions)

	log *logrus.Entry

	events chan tableEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// Option configures optional Table hooks.
type Option func(*Table)

// WithStateChangeHook registers a callback invoked, from the owner
// goroutine, after every settled state transition. It must not block.
func WithStateChangeHook(fn func(TableSnapshot)) Option {
	return func(t *Table) { t.onStateChange = fn }
}

// WithActionRequestHook registers a callback invoked when a seat
// becomes the one to act.
func WithActionRequestHook(fn func(seatIdx int, opts BettingOptions)) Option {
	return func(t *Table) { t.onActionRequest = fn }
}

// WithLogger overrides the default logger.
func WithLogger(l *logrus.Entry) Option {
	return func(t *Table) { t.log = l }
}

// NewTable creates a table in StageWaitingForPlayers. rngSource drives
// every shuffle this table performs; pass pkg/rng's System in
// production, a seeded source in tests.
func NewTable(id string, config TableConfig, rngSource poker.Shuffler, opts ...Option) *Table {
	config.applyDefaults()

	t := &Table{
		ID:        id,
		config:    config,
		seats:     make([]*Player, config.MaxPlayers),
		dealer:    0,
		rngSource: rngSource,
		deck:      poker.NewDeck(),
		evaluator: poker.NewHandEvaluator(),
		stage:     StageWaitingForPlayers,
		events:    make(chan tableEvent, 32),
		stop:      make(chan struct{}),
		log:       logrus.WithField("table", id),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start launches the owner goroutine. Cancelling ctx or calling Stop
// ends it.
func (t *Table) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.gameLoop(ctx)
}

// Stop ends the owner goroutine and waits for it to exit.
func (t *Table) Stop() {
	close(t.stop)
	t.wg.Wait()
}

func (t *Table) gameLoop(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case ev := <-t.events:
			t.handle(ev)
			t.notify()
			for t.advance() {
				t.notify()
			}
		}
	}
}

func (t *Table) notify() {
	if t.onStateChange != nil {
		t.onStateChange(t.Snapshot())
	}
}

// send delivers ev to the owner goroutine and blocks for its reply.
func (t *Table) send(ev tableEvent) error {
	ev.reply = make(chan error, 1)
	t.events <- ev
	return <-ev.reply
}

// Join seats a new player. Joining mid-hand sits the player out until
// the next hand begins (§9 seat stability).
func (t *Table) Join(playerID, name string, buyIn int64) error {
	return t.send(tableEvent{kind: eventJoin, playerID: playerID, name: name, buyIn: buyIn})
}

// ReapInterval is how long the table may sit with zero seated players
// before the registry should stop it.
func (t *Table) ReapInterval() time.Duration {
	return t.config.EmptyTableReapInterval
}

// Leave removes a player. A player acting mid-hand is folded first.
func (t *Table) Leave(playerID string) error {
	return t.send(tableEvent{kind: eventLeave, playerID: playerID})
}

// SubmitAction applies a player's betting action.
func (t *Table) SubmitAction(action Action) error {
	return t.send(tableEvent{kind: eventAction, playerID: action.PlayerID, action: action})
}

func (t *Table) handle(ev tableEvent) {
	if ev.kind == eventView {
		ev.viewReply <- Sanitize(t.Snapshot(), ev.viewObserver)
		return
	}

	var err error
	switch ev.kind {
	case eventJoin:
		err = t.handleJoin(ev.playerID, ev.name, ev.buyIn)
	case eventLeave:
		err = t.handleLeave(ev.playerID)
	case eventAction:
		err = t.handleAction(ev.action)
	case eventActionTimeout:
		t.handleTimeout(ev.timeoutSeat, ev.timeoutGen)
	case eventPacingTimer:
		t.handlePacingTimer(ev.timeoutGen)
	}
	if ev.reply != nil {
		ev.reply <- err
	}
}

func (t *Table) handleJoin(playerID, name string, buyIn int64) error {
	for _, p := range t.seats {
		if p != nil && p.ID == playerID {
			return userErr(ErrAlreadySeated)
		}
	}
	idx := -1
	for i, p := range t.seats {
		if p == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return userErr(ErrTableFull)
	}
	if buyIn <= 0 {
		buyIn = t.config.StartingStack
	}

	active := t.stage == StageWaitingForPlayers
	t.seats[idx] = &Player{
		ID:        playerID,
		Name:      name,
		Chips:     buyIn,
		Active:    active,
		SeatIndex: idx,
	}
	t.log.WithFields(logrus.Fields{"player": playerID, "seat": idx}).Info("player joined")
	return nil
}

func (t *Table) handleLeave(playerID string) error {
	idx, p := t.findSeat(playerID)
	if p == nil {
		return userErr(ErrPlayerNotFound)
	}

	if t.stage.IsActionStage() && t.actingSeat == idx && p.canAct() {
		p.Folded = true
		t.timerGen++ // invalidate the leaver's pending timeout
		t.actingSeat = -1
	}
	t.seats[idx] = nil
	t.handoffMarkers(idx)
	t.log.WithFields(logrus.Fields{"player": playerID, "seat": idx}).Info("player left")
	return nil
}

// handoffMarkers moves the dealer button off a seat that just emptied,
// so the next hand's rotation (startHand's nextOccupied search) never
// anchors on a nil seat.
func (t *Table) handoffMarkers(vacated int) {
	if t.dealer == vacated {
		if occ := t.nextOccupied(vacated); occ != -1 {
			t.dealer = occ
		}
	}
	// IsSmallBlind/IsBigBlind live on the Player struct itself, so they
	// are never dangling: they vanished along with the seat above.
	// Only t.dealer is a bare seat index that can outlive its seat.
}

func (t *Table) handleAction(action Action) error {
	idx, p := t.findSeat(action.PlayerID)
	if p == nil {
		return userErr(ErrPlayerNotFound)
	}
	if !t.stage.IsActionStage() {
		return userErr(ErrHandNotActive)
	}
	if idx != t.actingSeat {
		return userErr(ErrNotYourTurn)
	}
	if !p.canAct() {
		return userErr(ErrPlayerNotActive)
	}

	if err := t.round.Apply(p, idx, action, t.config.BigBlind); err != nil {
		return err
	}
	t.timerGen++ // invalidate this seat's pending timeout
	t.actingSeat = -1
	return nil
}

func (t *Table) handleTimeout(seat int, gen uint64) {
	if gen != t.timerGen || seat != t.actingSeat {
		return // superseded by a real action or a later timer; a no-op
	}
	p := t.seats[seat]
	if p == nil || !p.canAct() {
		return
	}
	action := Action{PlayerID: p.ID, Kind: ActionFold}
	t.log.WithField("seat", seat).Warn("action timer expired, auto-folding")
	_ = t.round.Apply(p, seat, action, t.config.BigBlind)
	t.timerGen++
	t.actingSeat = -1
}

// handlePacingTimer fires the delayed transition scheduled by
// pauseThenGoto. A stale generation means a newer pacing timer (or a
// table reset) has since superseded it, so it's silently ignored --
// the same cancellation pattern handleTimeout uses for action timers.
func (t *Table) handlePacingTimer(gen uint64) {
	if !t.pacing || gen != t.pacingGen {
		return
	}
	t.pacing = false
	t.stage = t.pacingNext
}

// pauseThenGoto holds the table at its current stage for delay before
// moving to next, so clients get a beat to render the intervening
// state (an award, a settled table) before it clears.
func (t *Table) pauseThenGoto(next Stage, delay time.Duration) {
	t.pacing = true
	t.pacingNext = next
	t.pacingGen++
	gen := t.pacingGen
	time.AfterFunc(delay, func() {
		select {
		case t.events <- tableEvent{kind: eventPacingTimer, timeoutGen: gen}:
		case <-t.stop:
		}
	})
}

func (t *Table) findSeat(playerID string) (int, *Player) {
	for i, p := range t.seats {
		if p != nil && p.ID == playerID {
			return i, p
		}
	}
	return -1, nil
}

// advance runs one stage transition if the table's current state lets
// it proceed without new input, and reports whether it did. gameLoop
// calls it repeatedly until it returns false, so a single incoming
// event can cascade through as many automatic transitions as the hand
// allows (e.g. a fold that ends the hand immediately).
func (t *Table) advance() bool {
	if t.stage.IsActionStage() && t.actingSeat == -1 {
		if seat, done := t.checkUncontested(); done {
			t.awardAndCleanupPending(seat)
			return true
		}
		if t.round.IsComplete(t.seats) {
			t.advanceStage()
			return true
		}
		next := t.round.NextToAct(t.seats, t.priorActor())
		if next == -1 {
			t.advanceStage()
			return true
		}
		t.promptSeat(next)
		return false
	}

	switch t.stage {
	case StageWaitingForPlayers:
		if t.countSeated() >= 2 {
			t.stage = StageStartingHand
			return true
		}
		return false

	case StageStartingHand:
		t.startHand()
		return true

	case StageShowdown:
		t.runShowdown()
		t.stage = StagePayouts
		return true

	case StagePayouts:
		if t.pacing {
			return false
		}
		t.awardPots()
		t.pauseThenGoto(StageHandCleanup, t.config.PayoutDisplay)
		return true

	case StageHandCleanup:
		if t.pacing {
			return false
		}
		next := t.cleanupHand()
		if next == StageStartingHand {
			t.pauseThenGoto(next, t.config.InterHandDelay)
		} else {
			t.stage = next
		}
		return true
	}
	return false
}

// priorActor returns the seat index NextToAct searches forward from
// whenever no seat is on the clock: when a round opens and after every
// applied action. It uses the last raiser if any, otherwise the
// dealer, so NextToAct's forward walk reaches every eligible seat
// starting from first-to-act.
func (t *Table) priorActor() int {
	if t.round != nil && t.round.LastRaiser != -1 {
		return t.round.LastRaiser
	}
	return t.dealer
}

func (t *Table) promptSeat(seat int) {
	t.actingSeat = seat
	p := t.seats[seat]
	opts := t.round.Options(p, seat, t.config.BigBlind)
	gen := t.timerGen
	time.AfterFunc(t.config.ActionTimeout, func() {
		select {
		case t.events <- tableEvent{kind: eventActionTimeout, timeoutSeat: seat, timeoutGen: gen}:
		case <-t.stop:
		}
	})
	if t.onActionRequest != nil {
		t.onActionRequest(seat, opts)
	}
}

// checkUncontested reports whether only one non-folded player remains
// in the hand, in which case the pot is awarded without a showdown
// (§4.4 fold-only win path).
func (t *Table) checkUncontested() (int, bool) {
	seat := -1
	count := 0
	for i, p := range t.seats {
		if p != nil && p.Active && !p.Folded {
			count++
			seat = i
		}
	}
	return seat, count == 1
}

func (t *Table) awardAndCleanupPending(seat int) {
	t.pots = ComputePots(t.seats)
	results := AwardUncontested(t.pots, t.seats, seat)
	t.winners = results
	t.log.WithField("seat", seat).WithField("awards", results).Info("hand won uncontested")
	t.stage = StageHandCleanup
}

// advanceStage is reached once the current betting round is complete
// and there is more than one live player; it deals the next street or
// moves to showdown.
func (t *Table) advanceStage() {
	switch t.stage {
	case StagePreflop:
		t.dealBoard(3)
		t.stage = StageFlop
	case StageFlop:
		t.dealBoard(1)
		t.stage = StageTurn
	case StageTurn:
		t.dealBoard(1)
		t.stage = StageRiver
	case StageRiver:
		t.stage = StageShowdown
		return
	}
	t.round = ResetForNextStage(t.seats, false, 0)
	t.actingSeat = -1
}

func (t *Table) dealBoard(n int) {
	t.deck.DealOne() // burn
	t.board = append(t.board, t.deck.DealMany(n)...)
}

func (t *Table) countSeated() int {
	n := 0
	for _, p := range t.seats {
		if p != nil && p.Chips > 0 {
			n++
		}
	}
	return n
}

// nextOccupied returns the next seat index after from holding any
// player, wrapping around, or -1 if none.
func (t *Table) nextOccupied(from int) int {
	n := len(t.seats)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if t.seats[idx] != nil {
			return idx
		}
	}
	return -1
}

// nextActive is like nextOccupied but requires the seat to be playing
// this hand (activated in startHand).
func (t *Table) nextActive(from int) int {
	n := len(t.seats)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		p := t.seats[idx]
		if p != nil && p.Active {
			return idx
		}
	}
	return -1
}

func (t *Table) activeSeatedCount() int {
	n := 0
	for _, p := range t.seats {
		if p != nil && p.Chips > 0 {
			n++
		}
	}
	return n
}

func (t *Table) startHand() {
	t.handNo++
	t.board = nil
	t.pots = nil
	t.winners = nil

	for _, p := range t.seats {
		if p != nil {
			p.resetForHand()
		}
		if p != nil && p.Chips <= 0 {
			p.Active = false
		}
	}

	n := len(t.seats)
	from := t.dealer
	if t.handNo == 1 {
		// The first hand keeps the initial button seat if it is occupied.
		from = (t.dealer - 1 + n) % n
	}
	if occ := t.nextOccupied(from); occ != -1 {
		t.dealer = occ
	}

	t.deck.Reset()
	t.deck.Shuffle(t.rngSource)

	playing := t.activePlayers()
	for _, seat := range playing {
		t.seats[seat].HoleCards[0] = t.deck.DealOne()
	}
	for _, seat := range playing {
		t.seats[seat].HoleCards[1] = t.deck.DealOne()
		t.seats[seat].HasCards = true
	}

	sbSeat, bbSeat := t.assignBlinds(playing)
	t.seats[sbSeat].IsSmallBlind = true
	t.seats[bbSeat].IsBigBlind = true
	t.seats[t.dealer].IsDealer = true

	t.round = NewBettingRound(0)
	t.postBlind(sbSeat, t.config.SmallBlind)
	t.postBlind(bbSeat, t.config.BigBlind)
	t.round.CurrentBet = t.config.BigBlind
	t.round.LastRaiseAmount = t.config.BigBlind
	// Action starts left of the big blind. Anchoring LastRaiser here
	// (rather than leaving it at -1) makes priorActor search forward
	// from the big blind instead of from the dealer, since posting a
	// blind is not itself a recorded action.
	t.round.LastRaiser = bbSeat

	t.stage = StagePreflop
	t.actingSeat = -1
}

func (t *Table) postBlind(seat int, amount int64) {
	p := t.seats[seat]
	posted := amount
	if posted > p.Chips {
		posted = p.Chips
	}
	p.Chips -= posted
	p.CurrentBet += posted
	p.TotalBetHand += posted
	if p.Chips == 0 {
		p.AllIn = true
	}
}

// activePlayers returns seat indices playing this hand, in seat order
// starting just after the dealer, matching deal order.
func (t *Table) activePlayers() []int {
	var out []int
	n := len(t.seats)
	for i := 1; i <= n; i++ {
		idx := (t.dealer + i) % n
		p := t.seats[idx]
		if p != nil && p.Active {
			out = append(out, idx)
		}
	}
	return out
}

// assignBlinds returns (smallBlindSeat, bigBlindSeat). Heads-up the
// dealer posts the small blind and acts first preflop, the standard
// exception to the usual seat-after-dealer rule (§9 supplemented
// feature: heads-up blinds).
func (t *Table) assignBlinds(playing []int) (int, int) {
	if len(playing) == 2 {
		return t.dealer, t.nextActive(t.dealer)
	}
	sb := t.nextActive(t.dealer)
	bb := t.nextActive(sb)
	return sb, bb
}

func (t *Table) runShowdown() {
	pots := ComputePots(t.seats)
	t.pots = pots
}

func (t *Table) awardPots() {
	results, err := AwardPots(t.pots, t.seats, t.evaluator, t.board, t.dealer)
	if err != nil {
		t.log.WithError(err).Error("pot award failed")
		return
	}
	t.winners = results
	t.log.WithField("awards", results).Info("hand settled")
}

// cleanupHand decides the next stage, without applying it -- advance's
// StageHandCleanup case decides whether that transition needs to wait
// out InterHandDelay first. Per-hand player state (including Folded,
// which Sanitize relies on to keep mucked hands hidden) is left as the
// hand ended until startHand resets it.
func (t *Table) cleanupHand() Stage {
	if t.activeSeatedCount() >= 2 {
		return StageStartingHand
	}
	return StageWaitingForPlayers
}
