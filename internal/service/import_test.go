package service

import (
	"context"
	"errors"
	"testing"

	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"
	"AdAttribution/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adapterMap map[model.PlatformType]interfaces.PlatformAdapter

func (m adapterMap) GetAdapter(p model.PlatformType) (interfaces.PlatformAdapter, error) {
	a, ok := m[p]
	if !ok {
		return nil, errors.New("no adapter")
	}
	return a, nil
}

func newImportService(t *testing.T) (*ImportService, *fakeAdapter, *fakeAdapter) {
	t.Helper()
	costs := repository.NewCostRepository(openReconcileDB(t))
	bing := &fakeAdapter{platform: model.PlatformBing, active: true, costs: costs}
	criteo := &fakeAdapter{platform: model.PlatformCriteo, costs: costs}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewImportService(adapterMap{model.PlatformBing: bing, model.PlatformCriteo: criteo}, nil, log)
	return svc, bing, criteo
}

func TestImportServiceRunsNamedPlatform(t *testing.T) {
	svc, bing, _ := newImportService(t)

	require.NoError(t, svc.Import(context.Background(), "bing", "2024-03-12", "2024-03-10"))
	require.Len(t, bing.imports, 1)
	assert.Equal(t, [2]string{"2024-03-10", "2024-03-12"}, bing.imports[0])
}

func TestImportServiceRejections(t *testing.T) {
	svc, bing, criteo := newImportService(t)
	ctx := context.Background()

	err := svc.Import(ctx, "Yahoo", "2024-03-10", "2024-03-10")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	var inactive *ErrPlatformInactive
	err = svc.Import(ctx, "Criteo", "2024-03-10", "2024-03-10")
	require.ErrorAs(t, err, &inactive)
	assert.Equal(t, model.PlatformCriteo, inactive.Platform)

	err = svc.Import(ctx, "AdWords", "2024-03-10", "2024-03-10")
	assert.ErrorAs(t, err, &inactive)

	assert.Error(t, svc.Import(ctx, "Bing", "2024-03-10", "03/11/2024"))
	assert.Empty(t, bing.imports)
	assert.Empty(t, criteo.imports)
}
