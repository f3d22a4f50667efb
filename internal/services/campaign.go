package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/tokenvote/internal/errors"
	"github.com/abrezinsky/tokenvote/internal/logger"
	"github.com/abrezinsky/tokenvote/internal/metrics"
	"github.com/abrezinsky/tokenvote/internal/models"
	"github.com/abrezinsky/tokenvote/internal/repository"
	"github.com/abrezinsky/tokenvote/internal/tally"
)

// CampaignService runs the campaign and scenario state machine
type CampaignService struct {
	log         logger.Logger
	repo        repository.FullRepository
	clock       Clock
	metrics     *metrics.Metrics
	broadcaster Broadcaster
	baseURL     string
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(log logger.Logger, repo repository.FullRepository, clock Clock, m *metrics.Metrics) *CampaignService {
	return &CampaignService{log: log, repo: repo, clock: clock, metrics: m}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *CampaignService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetBaseURL sets the public URL that invite links point at
func (s *CampaignService) SetBaseURL(url string) {
	s.baseURL = url
}

// CampaignInput holds the fields needed to create a campaign
type CampaignInput struct {
	GroupID              string `json:"group_id"`
	CreatorID            string `json:"creator_id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	TokensPerParticipant int    `json:"total_tokens_per_participant"`
	ExpectedScenarios    int    `json:"expected_scenario_count"`
}

// ScenarioInput holds the fields needed to define a scenario. A nil
// CampaignID defines a standalone scenario.
type ScenarioInput struct {
	CampaignID      *string        `json:"campaign_id"`
	Order           int            `json:"order"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Options         []string       `json:"options"`
	Mechanism       string         `json:"mechanism"`
	Hyperparameters map[string]any `json:"hyperparameters"`
	Deadline        time.Time      `json:"deadline"`
	ProposerID      string         `json:"proposer_id"`
}

// ==================== Campaigns ====================

// CreateCampaign creates a campaign awaiting approval
func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*models.Campaign, error) {
	switch {
	case strings.TrimSpace(in.GroupID) == "":
		return nil, errors.Validation("group id is required")
	case strings.TrimSpace(in.CreatorID) == "":
		return nil, errors.Validation("creator id is required")
	case strings.TrimSpace(in.Title) == "":
		return nil, errors.Validation("title is required")
	case in.TokensPerParticipant <= 0:
		return nil, errors.Validation("total tokens per participant must be positive").
			With("total_tokens_per_participant", in.TokensPerParticipant)
	case in.ExpectedScenarios <= 0:
		return nil, errors.Validation("expected scenario count must be positive").
			With("expected_scenario_count", in.ExpectedScenarios)
	}

	now := s.clock.Now()
	c := &models.Campaign{
		ID:                    uuid.NewString(),
		GroupID:               in.GroupID,
		CreatorID:             in.CreatorID,
		Title:                 strings.TrimSpace(in.Title),
		Description:           in.Description,
		TokensPerParticipant:  in.TokensPerParticipant,
		ExpectedScenarioCount: in.ExpectedScenarios,
		Status:                models.CampaignPendingApproval,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info("Campaign created", "campaign_id", c.ID, "group_id", c.GroupID, "tokens", c.TokensPerParticipant, "scenarios", c.ExpectedScenarioCount)
	return c, nil
}

// ApproveCampaign moves a campaign from PendingApproval to Setup and approves
// the scenarios that were defined while it waited
func (s *CampaignService) ApproveCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	var c *models.Campaign
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		var err error
		now := s.clock.Now()
		if c, err = s.transitionCampaign(ctx, st, campaignID, []models.CampaignStatus{models.CampaignPendingApproval}, models.CampaignSetup, now); err != nil {
			return err
		}
		pending, err := st.ListScenariosByStatus(ctx, campaignID, models.ScenarioPendingApproval)
		if err != nil {
			return err
		}
		for _, sc := range pending {
			if _, err := st.TransitionScenario(ctx, sc.ID, models.ScenarioPendingApproval, models.ScenarioApproved, 0, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Campaign approved", "campaign_id", c.ID, "status", c.Status)
	publish(s.broadcaster, []models.Event{campaignStatusEvent(c)})
	return c, nil
}

// RejectCampaign moves a campaign from PendingApproval to Rejected
func (s *CampaignService) RejectCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	return s.setCampaignStatus(ctx, campaignID, []models.CampaignStatus{models.CampaignPendingApproval}, models.CampaignRejected)
}

// ArchiveCampaign moves a campaign from any other status to Archived
func (s *CampaignService) ArchiveCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	return s.setCampaignStatus(ctx, campaignID, []models.CampaignStatus{
		models.CampaignPendingApproval,
		models.CampaignSetup,
		models.CampaignActive,
		models.CampaignCompleted,
		models.CampaignRejected,
	}, models.CampaignArchived)
}

func (s *CampaignService) setCampaignStatus(ctx context.Context, campaignID string, from []models.CampaignStatus, to models.CampaignStatus) (*models.Campaign, error) {
	var c *models.Campaign
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		var err error
		c, err = s.transitionCampaign(ctx, st, campaignID, from, to, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Campaign status changed", "campaign_id", c.ID, "status", c.Status)
	publish(s.broadcaster, []models.Event{campaignStatusEvent(c)})
	return c, nil
}

// transitionCampaign applies a status compare-and-swap and returns the
// updated campaign, or InvalidTransition naming the status it found
func (s *CampaignService) transitionCampaign(ctx context.Context, st repository.Store, campaignID string, from []models.CampaignStatus, to models.CampaignStatus, now time.Time) (*models.Campaign, error) {
	c, err := loadCampaign(ctx, st, campaignID)
	if err != nil {
		return nil, err
	}
	ok, err := st.UpdateCampaignStatus(ctx, campaignID, from, to, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.InvalidTransitionf("campaign %s cannot move from %s to %s", campaignID, c.Status, to).
			With("campaign_status", c.Status)
	}
	c.Status = to
	c.UpdatedAt = now
	return c, nil
}

// GetCampaign returns a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	return loadCampaign(ctx, s.repo, campaignID)
}

// ListCampaigns returns the campaigns of a group, or all when groupID is empty
func (s *CampaignService) ListCampaigns(ctx context.Context, groupID string) ([]models.Campaign, error) {
	return s.repo.ListCampaigns(ctx, groupID)
}

// ==================== Scenarios ====================

// DefineScenario validates and stores a scenario. Inside a campaign it takes
// the given order, is approved automatically when the campaign is in Setup
// or Active, and starts voting at once when the campaign is Active.
func (s *CampaignService) DefineScenario(ctx context.Context, in ScenarioInput) (*models.Scenario, error) {
	sc, err := s.buildScenario(in)
	if err != nil {
		return nil, err
	}

	if sc.CampaignID == nil {
		if err := s.repo.CreateScenario(ctx, sc); err != nil {
			return nil, err
		}
		s.log.Info("Standalone scenario defined", "scenario_id", sc.ID, "mechanism", sc.Mechanism)
		return sc, nil
	}

	var started bool
	err = s.repo.InTx(ctx, func(st repository.Store) error {
		c, err := loadCampaign(ctx, st, *sc.CampaignID)
		if err != nil {
			return err
		}
		switch c.Status {
		case models.CampaignPendingApproval:
			sc.Status = models.ScenarioPendingApproval
		case models.CampaignSetup, models.CampaignActive:
			sc.Status = models.ScenarioApproved
		default:
			return errors.InvalidTransitionf("campaign %s is %s and accepts no new scenarios", c.ID, c.Status).
				With("campaign_status", c.Status)
		}
		if sc.Order < 1 || sc.Order > c.ExpectedScenarioCount {
			return errors.Validationf("order must be between 1 and %d", c.ExpectedScenarioCount).
				With("order", sc.Order)
		}

		if err := st.CreateScenario(ctx, sc); err != nil {
			if err == repository.ErrDuplicate {
				return errors.DuplicateScenarioOrder(c.ID, sc.Order)
			}
			return err
		}
		ok, err := st.IncrementDefinedScenarios(ctx, c.ID, sc.CreatedAt)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidTransitionf("campaign %s already has all %d scenarios defined", c.ID, c.ExpectedScenarioCount).
				With("defined_scenario_count", c.DefinedScenarioCount)
		}

		if c.Status == models.CampaignActive {
			started, err = s.autoStart(ctx, st, c, sc)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Scenario defined", "campaign_id", *sc.CampaignID, "scenario_id", sc.ID, "order", sc.Order, "status", sc.Status)
	if started {
		s.announceStarted([]models.Scenario{*sc})
	}
	return sc, nil
}

func (s *CampaignService) buildScenario(in ScenarioInput) (*models.Scenario, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.Validation("title is required")
	}
	if in.Deadline.IsZero() {
		return nil, errors.Validation("deadline is required")
	}
	if len(in.Options) < 2 {
		return nil, errors.Validation("a scenario needs at least two options").With("options", len(in.Options))
	}
	options := make([]string, 0, len(in.Options))
	seen := make(map[string]bool, len(in.Options))
	for _, o := range in.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, errors.Validation("options must not be blank")
		}
		if seen[o] {
			return nil, errors.Validationf("duplicate option %q", o)
		}
		seen[o] = true
		options = append(options, o)
	}

	mech, err := tally.ParseMechanism(in.Mechanism)
	if err != nil {
		return nil, err
	}
	params, err := tally.ParseParams(mech, in.Hyperparameters)
	if err != nil {
		return nil, err
	}

	sc := &models.Scenario{
		ID:          uuid.NewString(),
		CampaignID:  in.CampaignID,
		ProposerID:  in.ProposerID,
		Title:       title,
		Description: in.Description,
		Options:     options,
		Mechanism:   mech,
		Params:      params,
		Deadline:    in.Deadline.UTC(),
		Status:      models.ScenarioPendingApproval,
		CreatedAt:   s.clock.Now(),
	}
	if in.CampaignID != nil {
		sc.Order = in.Order
	}
	return sc, nil
}

// autoStart starts a freshly approved scenario of an Active campaign,
// joining the current stage. It does not wait for the predecessor to close.
func (s *CampaignService) autoStart(ctx context.Context, st repository.Store, c *models.Campaign, sc *models.Scenario) (bool, error) {
	stage, err := stageFor(ctx, st, c)
	if err != nil {
		return false, err
	}
	started, err := startScenarios(ctx, st, []models.Scenario{*sc}, stage, s.clock.Now())
	if err != nil {
		return false, err
	}
	*sc = started[0]
	return true, nil
}

// ApproveScenario approves a scenario awaiting approval. A standalone
// scenario opens for voting immediately; a campaign scenario does so only
// when its campaign is Active.
func (s *CampaignService) ApproveScenario(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	var sc *models.Scenario
	var started bool
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		var err error
		if sc, err = loadScenario(ctx, st, scenarioID); err != nil {
			return err
		}
		if sc.Status != models.ScenarioPendingApproval {
			return errors.InvalidTransitionf("scenario %s is %s, not awaiting approval", sc.ID, sc.Status).
				With("scenario_status", sc.Status)
		}

		now := s.clock.Now()
		var c *models.Campaign
		if sc.CampaignID != nil {
			if c, err = loadCampaign(ctx, st, *sc.CampaignID); err != nil {
				return err
			}
			if c.Status != models.CampaignSetup && c.Status != models.CampaignActive {
				return errors.InvalidTransitionf("campaign %s is %s", c.ID, c.Status).
					With("campaign_status", c.Status)
			}
		}

		ok, err := st.TransitionScenario(ctx, sc.ID, models.ScenarioPendingApproval, models.ScenarioApproved, 0, now)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidTransitionf("scenario %s is no longer awaiting approval", sc.ID)
		}
		sc.Status = models.ScenarioApproved

		switch {
		case c == nil:
			out, err := startScenarios(ctx, st, []models.Scenario{*sc}, 0, now)
			if err != nil {
				return err
			}
			*sc, started = out[0], true
		case c.Status == models.CampaignActive:
			started, err = s.autoStart(ctx, st, c, sc)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Scenario approved", "scenario_id", sc.ID, "status", sc.Status)
	if started {
		s.announceStarted([]models.Scenario{*sc})
	}
	return sc, nil
}

// RejectScenario discards a scenario still awaiting approval. A campaign
// scenario gives its order and its defined slot back to the campaign.
func (s *CampaignService) RejectScenario(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	var sc *models.Scenario
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		var err error
		if sc, err = loadScenario(ctx, st, scenarioID); err != nil {
			return err
		}
		if sc.Status != models.ScenarioPendingApproval {
			return errors.InvalidTransitionf("scenario %s is %s, not awaiting approval", sc.ID, sc.Status).
				With("scenario_status", sc.Status)
		}
		ok, err := st.DeleteScenario(ctx, sc.ID, models.ScenarioPendingApproval)
		if err != nil {
			return err
		}
		if !ok {
			return errors.InvalidTransitionf("scenario %s is no longer awaiting approval", sc.ID)
		}
		if sc.CampaignID != nil {
			_, err = st.DecrementDefinedScenarios(ctx, *sc.CampaignID, s.clock.Now())
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Scenario rejected", "scenario_id", sc.ID, "order", sc.Order)
	return sc, nil
}

// StartScenario opens one approved scenario for voting. A campaign scenario
// needs its campaign Active and its predecessor by order Closed.
func (s *CampaignService) StartScenario(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	var sc *models.Scenario
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		var err error
		if sc, err = loadScenario(ctx, st, scenarioID); err != nil {
			return err
		}

		stage := 0
		if sc.CampaignID != nil {
			c, err := loadCampaign(ctx, st, *sc.CampaignID)
			if err != nil {
				return err
			}
			if c.Status != models.CampaignActive {
				return errors.InvalidTransitionf("campaign %s is %s, not Active", c.ID, c.Status).
					With("campaign_status", c.Status)
			}
			if err := requirePredecessorClosed(ctx, st, sc); err != nil {
				return err
			}
			if sc.Status != models.ScenarioApproved {
				return errors.InvalidTransitionf("scenario %s is %s, not approved", sc.ID, sc.Status).
					With("scenario_status", sc.Status)
			}
			if stage, err = stageFor(ctx, st, c); err != nil {
				return err
			}
		} else if sc.Status != models.ScenarioApproved {
			return errors.InvalidTransitionf("scenario %s is %s, not approved", sc.ID, sc.Status).
				With("scenario_status", sc.Status)
		}

		started, err := startScenarios(ctx, st, []models.Scenario{*sc}, stage, s.clock.Now())
		if err != nil {
			return err
		}
		*sc = started[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Scenario started", "scenario_id", sc.ID, "stage", sc.Stage)
	s.announceStarted([]models.Scenario{*sc})
	return sc, nil
}

func requirePredecessorClosed(ctx context.Context, st repository.Store, sc *models.Scenario) error {
	if sc.Order <= 1 {
		return nil
	}
	prev, err := st.ListScenariosByOrderRange(ctx, *sc.CampaignID, sc.Order-1, sc.Order-1)
	if err != nil {
		return err
	}
	if len(prev) == 0 {
		return errors.InvalidTransitionf("scenario at order %d is not defined yet", sc.Order-1).
			With("order", sc.Order-1)
	}
	if prev[0].Status != models.ScenarioClosed {
		return errors.InvalidTransitionf("scenario at order %d is %s, not Closed", sc.Order-1, prev[0].Status).
			With("order", sc.Order-1).With("scenario_status", prev[0].Status)
	}
	return nil
}

// StartNextStage starts the next batch of a campaign. From Setup it
// activates the campaign with the order-1 scenario; from Active it starts the
// scenario after the highest Closed order once no scenario is Voting.
func (s *CampaignService) StartNextStage(ctx context.Context, campaignID string) ([]models.Scenario, error) {
	var started []models.Scenario
	var activated *models.Campaign
	err := s.repo.InTx(ctx, func(st repository.Store) error {
		c, err := loadCampaign(ctx, st, campaignID)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		switch c.Status {
		case models.CampaignSetup:
		case models.CampaignActive:
			voting, err := st.ListScenariosByStatus(ctx, c.ID, models.ScenarioVoting)
			if err != nil {
				return err
			}
			if len(voting) > 0 {
				return errors.InvalidTransitionf("stage %d of campaign %s is still voting", c.CurrentStage, c.ID).
					With("voting_scenarios", len(voting))
			}
		default:
			return errors.InvalidTransitionf("campaign %s is %s", c.ID, c.Status).
				With("campaign_status", c.Status)
		}

		order, next, err := nextOpenOrder(ctx, st, c)
		if err != nil {
			return err
		}
		switch {
		case order == 0:
			return errors.InvalidTransitionf("campaign %s has no stage left to start", c.ID)
		case next == nil:
			return errors.InvalidTransitionf("scenario at order %d is not defined yet", order).With("order", order)
		case next.Status != models.ScenarioApproved:
			return errors.InvalidTransitionf("scenario at order %d is %s, not approved", order, next.Status).
				With("order", order).With("scenario_status", next.Status)
		}

		if c.Status == models.CampaignSetup {
			if activated, err = s.transitionCampaign(ctx, st, c.ID, []models.CampaignStatus{models.CampaignSetup}, models.CampaignActive, now); err != nil {
				return err
			}
		}
		stage, err := st.NextStage(ctx, c.ID)
		if err != nil {
			return err
		}
		started, err = startScenarios(ctx, st, []models.Scenario{*next}, stage, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if activated != nil {
		s.log.Info("Campaign activated", "campaign_id", activated.ID, "status", activated.Status)
		publish(s.broadcaster, []models.Event{campaignStatusEvent(activated)})
	}
	s.log.Info("Stage started", "campaign_id", campaignID, "stage", started[0].Stage, "scenarios", len(started))
	s.announceStarted(started)
	return started, nil
}

func (s *CampaignService) announceStarted(scenarios []models.Scenario) {
	for range scenarios {
		s.metrics.ScenarioStarted()
	}
	publish(s.broadcaster, scenarioEvents(models.EventScenarioStarted, scenarios))
}

// GetScenario returns a scenario by ID
func (s *CampaignService) GetScenario(ctx context.Context, scenarioID string) (*models.Scenario, error) {
	return loadScenario(ctx, s.repo, scenarioID)
}

// ListScenarios returns a campaign's scenarios by order
func (s *CampaignService) ListScenarios(ctx context.Context, campaignID string) ([]models.Scenario, error) {
	if _, err := loadCampaign(ctx, s.repo, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListScenarios(ctx, campaignID)
}

// ActiveStage returns the campaign's scenarios that are currently Voting
func (s *CampaignService) ActiveStage(ctx context.Context, campaignID string) ([]models.Scenario, error) {
	if _, err := loadCampaign(ctx, s.repo, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListScenariosByStatus(ctx, campaignID, models.ScenarioVoting)
}
