package pgtrigger

import (
	"github.com/go-nacelle/nacelle/v2"
)

// Service bundles a configured reconciler with the deployment's database
// target for applications embedding trigger provisioning.
type Service struct {
	Reconciler *Reconciler
	Target     DatabaseTarget
}

// Initializer registers a Service into a nacelle service container.
type Initializer struct {
	Logger   nacelle.Logger           `service:"logger"`
	Services nacelle.ServiceContainer `service:"services"`
	dialer   Dialer
}

const ServiceName = "pgtrigger"

func NewInitializer(configs ...ReconcilerConfigFunc) *Initializer {
	options := &reconcilerOptions{dialer: Dial}
	for _, f := range configs {
		f(options)
	}

	return &Initializer{
		dialer: options.dialer,
	}
}

func (i *Initializer) Init(config nacelle.Config) error {
	triggerConfig := &Config{}
	if err := config.Load(triggerConfig); err != nil {
		return err
	}

	logger := i.Logger
	if !triggerConfig.LogSQLQueries {
		logger = nacelle.NewNilLogger()
	}

	return i.Services.Set(ServiceName, &Service{
		Reconciler: NewReconciler(logger, WithDialer(i.dialer)),
		Target: DatabaseTarget{
			URL:       triggerConfig.DatabaseURL,
			Namespace: triggerConfig.Namespace,
			Role:      triggerConfig.Role,
		},
	})
}
