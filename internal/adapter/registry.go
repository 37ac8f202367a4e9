package adapter

import (
	"fmt"

	"AdAttribution/internal/config"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
)

// PlatformRegistry holds one adapter instance per supported platform.
type PlatformRegistry struct {
	ordered  []interfaces.PlatformAdapter
	adapters map[model.PlatformType]interfaces.PlatformAdapter
}

func NewPlatformRegistry(cfg *config.Config, costs interfaces.CostRepository, logger logrus.FieldLogger) (*PlatformRegistry, error) {
	built, err := Build(cfg, costs, logger)
	if err != nil {
		return nil, err
	}
	r := &PlatformRegistry{
		ordered:  built,
		adapters: make(map[model.PlatformType]interfaces.PlatformAdapter, len(built)),
	}
	for _, a := range built {
		r.adapters[a.Type()] = a
		logger.WithFields(logrus.Fields{"platform": a.Type(), "active": a.IsActive()}).Info("platform adapter ready")
	}
	return r, nil
}

// GetAdapter returns the adapter for platform.
func (r *PlatformRegistry) GetAdapter(platform model.PlatformType) (interfaces.PlatformAdapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("no adapter for platform %s", platform)
	}
	return a, nil
}

// Adapters returns all adapters in merge order.
func (r *PlatformRegistry) Adapters() []interfaces.PlatformAdapter {
	return r.ordered
}
