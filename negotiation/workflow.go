package negotiation

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/procurely/negotiator/catalog"
	"github.com/procurely/negotiator/intake"
	"github.com/procurely/negotiator/llm"
	"github.com/procurely/negotiator/observability"
	"github.com/procurely/negotiator/offer"
	"github.com/procurely/negotiator/scoring"
	"github.com/procurely/negotiator/workflows"
)

// Observable step names emitted during a run. These are the diagnostic
// contract for non-deterministic LLM runs; do not rename between releases.
const (
	StepRequestReceived       observability.Step = "negotiation.request_received"
	StepIntakeSummary         observability.Step = "negotiation.intake_summary"
	StepSelectedVendors       observability.Step = "negotiation.selected_vendors"
	StepConversationCreated   observability.Step = "negotiation.conversation_created"
	StepInitialPrompt         observability.Step = "negotiation.initial_prompt"
	StepVendorResponseInitial observability.Step = "negotiation.vendor_response_initial"
	StepExtractionFailed      observability.Step = "negotiation.offer_extraction_failed"
	StepInitialOfferExtracted observability.Step = "negotiation.initial_offer_extracted"
	StepInitialScore          observability.Step = "negotiation.initial_score"
	StepShortlistReady        observability.Step = "negotiation.shortlist_ready"
	StepStrategyFailed        observability.Step = "negotiation.second_round_strategy_failed"
	StepSecondRoundStrategy   observability.Step = "negotiation.second_round_strategy"
	StepSecondRoundPrompt     observability.Step = "negotiation.second_round_prompt"
	StepVendorResponseSecond  observability.Step = "negotiation.vendor_response_second"
	StepSecondOfferExtracted  observability.Step = "negotiation.second_offer_extracted"
	StepSecondScore           observability.Step = "negotiation.second_score"
	StepTradeoffOptionsReady  observability.Step = "negotiation.tradeoff_options_ready"
	StepWorkflowComplete      observability.Step = "negotiation.workflow_complete"
)

// Config bounds one workflow instance.
type Config struct {
	// MaxParallelVendors caps both the vendor selection size and the worker
	// pool for the negotiation rounds.
	MaxParallelVendors int

	// SecondRoundLimit caps the shortlist advancing to round two.
	SecondRoundLimit int
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		MaxParallelVendors: 8,
		SecondRoundLimit:   5,
	}
}

// Option overrides a Workflow collaborator during construction.
type Option func(*Workflow)

// WithObserver sets the diagnostics sink. Defaults to NoOpObserver.
func WithObserver(observer observability.Observer) Option {
	return func(w *Workflow) { w.observer = observer }
}

// WithRunID overrides run id generation, for deterministic tests.
func WithRunID(generate func() string) Option {
	return func(w *Workflow) { w.newRunID = generate }
}

// Workflow runs two-round negotiations. Safe for concurrent Run calls; all
// per-run state lives on the stack of Run.
type Workflow struct {
	cfg      Config
	vendors  catalog.Client
	llm      llm.Client
	intake   *intake.Summarizer
	observer observability.Observer
	newRunID func() string
}

// New builds a Workflow from its two remote collaborators. Zero or negative
// limits fall back to the defaults.
func New(cfg Config, vendors catalog.Client, llmClient llm.Client, opts ...Option) (*Workflow, error) {
	defaults := DefaultConfig()
	if cfg.MaxParallelVendors <= 0 {
		cfg.MaxParallelVendors = defaults.MaxParallelVendors
	}
	if cfg.SecondRoundLimit <= 0 {
		cfg.SecondRoundLimit = defaults.SecondRoundLimit
	}

	summarizer, err := intake.NewSummarizer(llmClient)
	if err != nil {
		return nil, fmt.Errorf("build intake summarizer: %w", err)
	}

	w := &Workflow{
		cfg:      cfg,
		vendors:  vendors,
		llm:      llmClient,
		intake:   summarizer,
		observer: observability.NoOpObserver{},
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run executes one negotiation end to end. Intake, vendor selection, and
// conversation traffic are fatal on error; offer extraction and strategy
// generation degrade per vendor instead of failing the run.
func (w *Workflow) Run(ctx context.Context, request Request) (*Response, error) {
	runID := w.newRunID()
	w.emit(ctx, StepRequestReceived, observability.LevelInfo, runID, map[string]any{
		"vendor_ids":   request.VendorIDs,
		"vendor_limit": request.VendorLimit,
	})

	summary, err := w.intake.Summarize(ctx, request.Intake)
	if err != nil {
		return nil, err
	}
	w.emit(ctx, StepIntakeSummary, observability.LevelInfo, runID, map[string]any{"summary": summary})

	engine := scoring.NewEngine(summary)

	vendors, err := w.pickVendors(ctx, request)
	if err != nil {
		return nil, err
	}
	w.emit(ctx, StepSelectedVendors, observability.LevelInfo, runID, map[string]any{
		"vendor_ids":   vendorIDs(vendors),
		"vendor_names": vendorNames(vendors),
	})
	if len(vendors) == 0 {
		return nil, ErrNoVendors
	}

	firstRound, err := workflows.Run(ctx, w.poolConfig(), vendors,
		func(ctx context.Context, v catalog.Vendor) (vendorRound, error) {
			return w.runInitialRound(ctx, runID, v, summary, engine)
		})
	if err != nil {
		return nil, fmt.Errorf("initial round failed: %w", err)
	}

	shortlist := shortlistRounds(firstRound.Results, w.cfg.SecondRoundLimit)
	w.emit(ctx, StepShortlistReady, observability.LevelInfo, runID, map[string]any{
		"shortlisted_vendor_ids":   roundVendorIDs(shortlist),
		"shortlisted_vendor_names": roundVendorNames(shortlist),
	})
	if len(shortlist) == 0 {
		return nil, ErrEmptyShortlist
	}

	secondRound, err := workflows.Run(ctx, w.poolConfig(), shortlist,
		func(ctx context.Context, entry vendorRound) (VendorOutcome, error) {
			return w.runSecondRound(ctx, runID, entry, summary, engine)
		})
	if err != nil {
		return nil, fmt.Errorf("second round failed: %w", err)
	}

	tradeoffs := buildTradeoffOptions(secondRound.Results)
	w.emit(ctx, StepTradeoffOptionsReady, observability.LevelInfo, runID, map[string]any{"options": tradeoffs})

	response := &Response{
		IntakeSummary:      summary,
		ShortlistedVendors: secondRound.Results,
		TradeoffOptions:    tradeoffs,
	}
	w.emit(ctx, StepWorkflowComplete, observability.LevelInfo, runID, map[string]any{
		"shortlisted": len(response.ShortlistedVendors),
		"tradeoffs":   len(response.TradeoffOptions),
	})
	return response, nil
}

// pickVendors resolves the vendor set in catalog order, truncated to the
// request limit bounded by the configured maximum. Unknown explicit ids are
// dropped silently by the catalog client.
func (w *Workflow) pickVendors(ctx context.Context, request Request) ([]catalog.Vendor, error) {
	limit := request.VendorLimit
	if limit <= 0 || limit > w.cfg.MaxParallelVendors {
		limit = w.cfg.MaxParallelVendors
	}

	var vendors []catalog.Vendor
	var err error
	if len(request.VendorIDs) > 0 {
		vendors, err = w.vendors.FetchVendorSubset(ctx, request.VendorIDs)
	} else {
		vendors, err = w.vendors.ListVendors(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("vendor selection failed: %w", err)
	}

	if len(vendors) > limit {
		vendors = vendors[:limit]
	}
	return vendors, nil
}

func (w *Workflow) runInitialRound(
	ctx context.Context,
	runID string,
	v catalog.Vendor,
	summary *intake.Summary,
	engine *scoring.Engine,
) (vendorRound, error) {
	title := summary.Items[0].Name + " negotiation"
	conversation, err := w.vendors.CreateConversation(ctx, v.ID, title)
	if err != nil {
		return vendorRound{}, fmt.Errorf("create conversation with vendor %d: %w", v.ID, err)
	}
	w.emit(ctx, StepConversationCreated, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       v.ID,
		"vendor_name":     v.Name,
		"conversation_id": conversation.ID,
	})

	prompt := buildInitialPrompt(v, summary)
	w.emit(ctx, StepInitialPrompt, observability.LevelVerbose, runID, map[string]any{
		"vendor_id":       v.ID,
		"conversation_id": conversation.ID,
		"prompt":          prompt,
	})

	reply, err := w.vendors.SendMessage(ctx, conversation.ID, prompt)
	if err != nil {
		return vendorRound{}, fmt.Errorf("send initial message to vendor %d: %w", v.ID, err)
	}
	w.emit(ctx, StepVendorResponseInitial, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       v.ID,
		"conversation_id": conversation.ID,
		"response":        reply.Content,
	})

	extracted, degraded := w.extractOffer(ctx, runID, v, reply, conversation.ID, offer.RoundInitial)
	w.emit(ctx, StepInitialOfferExtracted, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       v.ID,
		"conversation_id": conversation.ID,
		"offer":           extracted,
		"degraded":        degraded,
	})

	score := engine.Score(extracted)
	w.emit(ctx, StepInitialScore, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       v.ID,
		"conversation_id": conversation.ID,
		"score":           score,
	})

	return vendorRound{
		Vendor:         v,
		ConversationID: conversation.ID,
		FirstMessage:   reply,
		FirstOffer:     extracted,
		FirstScore:     score,
	}, nil
}

func (w *Workflow) runSecondRound(
	ctx context.Context,
	runID string,
	entry vendorRound,
	summary *intake.Summary,
	engine *scoring.Engine,
) (VendorOutcome, error) {
	strategy, prompt := w.buildSecondRoundPrompt(ctx, runID, entry, summary)
	w.emit(ctx, StepSecondRoundStrategy, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       entry.Vendor.ID,
		"conversation_id": entry.ConversationID,
		"strategy":        strategy,
	})
	w.emit(ctx, StepSecondRoundPrompt, observability.LevelVerbose, runID, map[string]any{
		"vendor_id":       entry.Vendor.ID,
		"conversation_id": entry.ConversationID,
		"prompt":          prompt,
	})

	reply, err := w.vendors.SendMessage(ctx, entry.ConversationID, prompt)
	if err != nil {
		return VendorOutcome{}, fmt.Errorf("send second-round message to vendor %d: %w", entry.Vendor.ID, err)
	}
	w.emit(ctx, StepVendorResponseSecond, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       entry.Vendor.ID,
		"conversation_id": entry.ConversationID,
		"response":        reply.Content,
	})

	secondOffer, degraded := w.extractOffer(ctx, runID, entry.Vendor, reply, entry.ConversationID, offer.RoundSecond)
	w.emit(ctx, StepSecondOfferExtracted, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       entry.Vendor.ID,
		"conversation_id": entry.ConversationID,
		"offer":           secondOffer,
		"degraded":        degraded,
	})

	secondScore := engine.Score(secondOffer)
	w.emit(ctx, StepSecondScore, observability.LevelInfo, runID, map[string]any{
		"vendor_id":       entry.Vendor.ID,
		"conversation_id": entry.ConversationID,
		"score":           secondScore,
	})

	return VendorOutcome{
		VendorID:       entry.Vendor.ID,
		VendorName:     entry.Vendor.Name,
		ConversationID: entry.ConversationID,
		Strategy:       strategy,
		InitialOffer:   entry.FirstOffer,
		SecondOffer:    &secondOffer,
		Scores:         []scoring.RoundScore{entry.FirstScore, secondScore},
	}, nil
}

// extractOffer reads one vendor reply into a structured offer. Extraction
// failures degrade to an offer with identity only; they never fail the run.
// The second return reports whether degradation happened.
func (w *Workflow) extractOffer(
	ctx context.Context,
	runID string,
	v catalog.Vendor,
	reply catalog.Message,
	conversationID int,
	round offer.Round,
) (offer.VendorOffer, bool) {
	id := offer.Identity{
		VendorID:       v.ID,
		VendorName:     v.Name,
		Round:          round,
		ConversationID: conversationID,
		MessageID:      reply.ID,
		RawMessage:     reply.Content,
	}

	payload, err := json.Marshal(map[string]any{
		"vendor_name":     v.Name,
		"vendor_message":  reply.Content,
		"expected_fields": expectedOfferFields,
	})
	if err == nil {
		var fields map[string]any
		fields, err = w.llm.CompleteJSON(ctx, extractionSystemPrompt, string(payload))
		if err == nil {
			return offer.FromFields(id, fields), false
		}
	}

	w.emit(ctx, StepExtractionFailed, observability.LevelWarning, runID, map[string]any{
		"vendor_id":       v.ID,
		"conversation_id": conversationID,
		"round":           string(round),
		"error":           err.Error(),
	})
	return offer.Degraded(id), true
}

// buildSecondRoundPrompt asks the strategist model for a strategy and message,
// degrading to the deterministic fallback when the call fails or the message
// comes back empty.
func (w *Workflow) buildSecondRoundPrompt(
	ctx context.Context,
	runID string,
	entry vendorRound,
	summary *intake.Summary,
) (strategy, message string) {
	payload, err := json.Marshal(map[string]any{
		"customer_intake": summary,
		"vendor_name":     entry.Vendor.Name,
		"vendor_response": entry.FirstMessage.Content,
		"parsed_offer":    entry.FirstOffer,
	})
	if err == nil {
		var result map[string]any
		result, err = w.llm.CompleteJSON(ctx, strategySystemPrompt, string(payload))
		if err == nil {
			strategy = stringifyField(result["strategy"])
			if strategy == "" {
				strategy = "Collaborative but firm"
			}
			message = stringifyField(result["message"])
			if message == "" {
				message = fallbackSecondRoundMessage(summary)
			}
			return strategy, message
		}
	}

	w.emit(ctx, StepStrategyFailed, observability.LevelWarning, runID, map[string]any{
		"vendor_id":       entry.Vendor.ID,
		"conversation_id": entry.ConversationID,
		"error":           err.Error(),
	})
	return "Fallback: collaborative but firm", fallbackSecondRoundMessage(summary)
}

func (w *Workflow) poolConfig() workflows.Config {
	return workflows.Config{
		MaxWorkers: w.cfg.MaxParallelVendors,
		FailFast:   true,
		Observer:   w.observer,
	}
}

func (w *Workflow) emit(ctx context.Context, step observability.Step, level observability.Level, runID string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["run_id"] = runID
	w.observer.OnEvent(ctx, observability.Event{
		Step:      step,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "negotiation.Workflow",
		Data:      data,
	})
}

// shortlistRounds orders first-round entries by descending weighted score,
// keeping catalog order on ties, and truncates to limit.
func shortlistRounds(rounds []vendorRound, limit int) []vendorRound {
	shortlist := slices.Clone(rounds)
	slices.SortStableFunc(shortlist, func(a, b vendorRound) int {
		switch {
		case a.FirstScore.WeightedScore > b.FirstScore.WeightedScore:
			return -1
		case a.FirstScore.WeightedScore < b.FirstScore.WeightedScore:
			return 1
		default:
			return 0
		}
	})
	if len(shortlist) > limit {
		shortlist = shortlist[:limit]
	}
	return shortlist
}

func vendorIDs(vendors []catalog.Vendor) []int {
	ids := make([]int, len(vendors))
	for i, v := range vendors {
		ids[i] = v.ID
	}
	return ids
}

func vendorNames(vendors []catalog.Vendor) []string {
	names := make([]string, len(vendors))
	for i, v := range vendors {
		names[i] = v.Name
	}
	return names
}

func roundVendorIDs(rounds []vendorRound) []int {
	ids := make([]int, len(rounds))
	for i, entry := range rounds {
		ids[i] = entry.Vendor.ID
	}
	return ids
}

func roundVendorNames(rounds []vendorRound) []string {
	names := make([]string, len(rounds))
	for i, entry := range rounds {
		names[i] = entry.Vendor.Name
	}
	return names
}
