package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/feiralivre/monetize/internal/app/api/server"
	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/internal/app/service/affiliate"
	"github.com/feiralivre/monetize/internal/app/service/catalog"
	"github.com/feiralivre/monetize/internal/app/service/events"
	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/internal/app/service/renewal"
	"github.com/feiralivre/monetize/internal/app/service/stats"
	"github.com/feiralivre/monetize/internal/platform/cache"
	"github.com/feiralivre/monetize/internal/platform/collab"
	"github.com/feiralivre/monetize/internal/platform/db"
	"github.com/feiralivre/monetize/internal/platform/stream"
	"github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	cache.Module,
	stream.Module,
	collab.Module,
	server.Module,
	ledger.Module,
	catalog.Module,
	activation.Module,
	renewal.Module,
	affiliate.Module,
	stats.Module,
	events.Module,
	// The affiliate service is the accrual sink for transaction events.
	fx.Provide(func(s *affiliate.Service) events.Accruer { return s }),
)
