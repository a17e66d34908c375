// Package connection implements the use cases around user connections:
// CRUD and activation through a registered connection type.
package connection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/infrastructure/logger"
	"github.com/llmstack/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultLockTTL bounds how long a crashed activation can block the next one
const DefaultLockTTL = 2 * time.Minute

// ConnectionService handles connection-related business operations
type ConnectionService struct {
	repo     connection.ConnectionRepository
	registry *Registry
	lock     connection.ActivationLock
	lockTTL  time.Duration
	logger   *zap.Logger
	metrics  *telemetry.ActivationMetrics
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(
	repo connection.ConnectionRepository,
	registry *Registry,
	lock connection.ActivationLock,
	lockTTL time.Duration,
	log *zap.Logger,
) *ConnectionService {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ConnectionService{
		repo:     repo,
		registry: registry,
		lock:     lock,
		lockTTL:  lockTTL,
		logger:   log,
	}
}

// SetMetrics enables activation metrics
func (s *ConnectionService) SetMetrics(m *telemetry.ActivationMetrics) {
	s.metrics = m
}

// ListTypes returns the connection types that can be created
func (s *ConnectionService) ListTypes() []connection.TypeDescriptor {
	return s.registry.Descriptors()
}

// Create creates a connection of a registered type in CREATED state
func (s *ConnectionService) Create(ctx context.Context, ownerID uuid.UUID, req CreateConnectionRequest) (*ConnectionResponse, error) {
	t, err := s.registry.Get(req.ProviderSlug, req.TypeSlug)
	if err != nil {
		return nil, err
	}
	desc := t.Descriptor()
	if err := checkRequiredFields(desc, req.Configuration); err != nil {
		return nil, err
	}

	conn, err := connection.NewConnection(ownerID, req.Name, req.Description, desc, req.Configuration)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, conn); err != nil {
		return nil, err
	}

	logger.LOr(ctx, s.logger).Info("connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("type", desc.Key()),
	)
	resp := ToConnectionResponse(conn, desc.SecretFields())
	return &resp, nil
}

// Get retrieves one of the owner's connections
func (s *ConnectionService) Get(ctx context.Context, ownerID, id uuid.UUID) (*ConnectionResponse, error) {
	conn, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToConnectionResponse(conn, s.secretFields(conn))
	return &resp, nil
}

// ListByOwner retrieves the owner's connections with pagination
func (s *ConnectionService) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]ConnectionResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	conns, err := s.repo.FindByOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ConnectionResponse, 0, len(conns))
	for i := range conns {
		out = append(out, ToConnectionResponse(&conns[i], s.secretFields(&conns[i])))
	}
	return out, total, nil
}

// Update changes a connection's name, description and configuration
func (s *ConnectionService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateConnectionRequest) (*ConnectionResponse, error) {
	conn, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	secrets := s.secretFields(conn)

	cfg := req.Configuration
	if cfg != nil {
		cfg = mergeSecrets(cfg, conn.Configuration, secrets)
		if t, terr := s.registry.Get(conn.ProviderSlug, conn.TypeSlug); terr == nil {
			if err := checkRequiredFields(t.Descriptor(), cfg); err != nil {
				return nil, err
			}
		}
	}
	if err := conn.Update(req.Name, req.Description, cfg); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, conn); err != nil {
		return nil, err
	}
	resp := ToConnectionResponse(conn, secrets)
	return &resp, nil
}

// Delete deletes one of the owner's connections
func (s *ConnectionService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Activate runs the connection type's login flow and persists the outcome.
// A login the provider rejected is returned as a response with Error set and
// the connection FAILED. Any other failure is returned as an error after the
// connection has been persisted as FAILED.
func (s *ConnectionService) Activate(ctx context.Context, ownerID, id uuid.UUID) (resp *ActivationResponse, err error) {
	conn, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	t, err := s.registry.Get(conn.ProviderSlug, conn.TypeSlug)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithConnectionID(ctx, id.String())
	ctx, span := telemetry.StartSpan(ctx, "connection.activate",
		attribute.String("connection.id", id.String()),
		attribute.String("connection.type", conn.TypeKey()),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		span.End()
	}()
	log := logger.LOr(ctx, s.logger)

	acquired, err := s.lock.Acquire(ctx, id, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire activation lock: %w", err)
	}
	if !acquired {
		return nil, shared.ErrActivationRunning
	}
	defer func() {
		if rerr := s.lock.Release(context.WithoutCancel(ctx), id); rerr != nil {
			log.Warn("failed to release activation lock", zap.Error(rerr))
		}
	}()

	conn.MarkConnecting()
	if err := s.repo.Save(ctx, conn); err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := t.Activate(ctx, conn)
	if err != nil {
		if conn.Status != connection.StatusFailed {
			conn.MarkFailed()
		}
		if serr := s.repo.Save(context.WithoutCancel(ctx), conn); serr != nil {
			log.Error("failed to persist failed activation", zap.Error(serr))
		}
		s.metrics.RecordActivation(ctx, conn.TypeKey(), telemetry.OutcomeError, time.Since(started))
		log.Warn("connection activation failed",
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return nil, err
	}

	// the session was captured; keep it even if the caller went away meanwhile
	if err := s.repo.Save(context.WithoutCancel(ctx), conn); err != nil {
		return nil, err
	}

	secrets := t.Descriptor().SecretFields()
	resp = &ActivationResponse{Connection: ToConnectionResponse(conn, secrets)}
	if result.Rejected() {
		resp.Error = result.Error
		span.SetAttributes(attribute.Bool("connection.rejected", true))
		s.metrics.RecordActivation(ctx, conn.TypeKey(), telemetry.OutcomeRejected, time.Since(started))
		log.Info("connection activation rejected by provider", zap.Duration("elapsed", time.Since(started)))
		return resp, nil
	}

	telemetry.SetOK(span)
	s.metrics.RecordActivation(ctx, conn.TypeKey(), telemetry.OutcomeActive, time.Since(started))
	log.Info("connection activated",
		zap.String("status", conn.Status.String()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return resp, nil
}

// ReapStaleActivations fails connections that have been CONNECTING for longer
// than maxAge. Their activation died without persisting an outcome.
func (s *ConnectionService) ReapStaleActivations(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.repo.FailStaleConnecting(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("fail stale connections: %w", err)
	}
	s.metrics.RecordReaped(ctx, n)
	if n > 0 {
		s.logger.Warn("failed stale connection activations", zap.Int64("count", n), zap.Duration("max_age", maxAge))
	}
	return n, nil
}

// findOwned loads a connection, reporting other owners' connections as not found
func (s *ConnectionService) findOwned(ctx context.Context, ownerID, id uuid.UUID) (*connection.Connection, error) {
	conn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conn.IsOwnedBy(ownerID) {
		return nil, shared.ErrNotFound
	}
	return conn, nil
}

// secretFields returns the secret fields of the connection's type. Connections
// whose type is no longer registered hide every string value.
func (s *ConnectionService) secretFields(conn *connection.Connection) []string {
	t, err := s.registry.Get(conn.ProviderSlug, conn.TypeSlug)
	if err == nil {
		return t.Descriptor().SecretFields()
	}
	var all []string
	for k, v := range conn.Configuration {
		if _, ok := v.(string); ok {
			all = append(all, k)
		}
	}
	return all
}

func mergeSecrets(next, current map[string]any, secrets []string) map[string]any {
	out := make(map[string]any, len(next)+len(secrets))
	for k, v := range next {
		out[k] = v
	}
	for _, f := range secrets {
		if _, given := out[f]; !given {
			if v, ok := current[f]; ok {
				out[f] = v
			}
		}
	}
	return out
}

func checkRequiredFields(desc connection.TypeDescriptor, cfg map[string]any) error {
	var missing []string
	for _, f := range desc.Fields {
		if !f.Required {
			continue
		}
		v, ok := cfg[f.Name]
		if !ok || v == nil {
			missing = append(missing, f.Name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return shared.NewDomainError("INVALID_INPUT", "missing required configuration: "+strings.Join(missing, ", "))
	}
	return nil
}
