package sessionkit

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/kyralabs/sessionkit/session"
)

// Builder assembles an [Orchestrator]. Construction is allocation-only; no
// I/O happens before [Orchestrator.Start].
type Builder struct {
	config Config
	redis  *redis.Client

	provider IdentityProvider
	factory  WidgetFactory

	auditSink AuditSink

	built bool
}

// New creates a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client backing snapshot persistence. Required when
// Persistence.Enabled.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithProvider supplies the identity provider. Required.
func (b *Builder) WithProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithWidgetFactory supplies the human-verification widget factory used by
// the phone flow. Optional; without one, BeginChallenge fails.
func (b *Builder) WithWidgetFactory(f WidgetFactory) *Builder {
	b.factory = f
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the orchestrator and its phone
// flow. A builder can be used once.
func (b *Builder) Build() (*Orchestrator, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.config.Persistence.Enabled && b.redis == nil {
		return nil, errors.New("persistence enabled but no redis client supplied")
	}
	b.built = true

	o := &Orchestrator{
		config:      b.config,
		provider:    b.provider,
		metrics:     NewMetrics(b.config.Metrics),
		audit:       newAuditDispatcher(b.config.Audit, b.auditSink),
		session:     Session{Status: StatusInitializing},
		subscribers: map[string]chan Session{},
	}
	if b.config.Persistence.Enabled {
		o.snapshots = session.NewStore(b.redis, b.config.Persistence.RedisPrefix)
	}
	o.phone = newPhoneChallengeFlow(o, b.factory, b.config.Phone)

	return o, nil
}
