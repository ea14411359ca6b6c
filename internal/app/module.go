package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/vipgate/vipgate/internal/app/api/server"
	"github.com/vipgate/vipgate/internal/app/bot"
	"github.com/vipgate/vipgate/internal/app/service/membership"
	notificationhandler "github.com/vipgate/vipgate/internal/app/service/notification_handler"
	notificationlog "github.com/vipgate/vipgate/internal/app/service/notification_log"
	"github.com/vipgate/vipgate/internal/app/service/statistics"
	"github.com/vipgate/vipgate/internal/app/service/subscription"
	"github.com/vipgate/vipgate/internal/app/service/sweeper"
	"github.com/vipgate/vipgate/internal/platform/db"
	"github.com/vipgate/vipgate/internal/platform/qris"
	"github.com/vipgate/vipgate/internal/platform/telegram"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/config"
	"github.com/vipgate/vipgate/pkg/logger"
	"github.com/vipgate/vipgate/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	store.Module,
	metrics.Module,
	telegram.Module,
	qris.Module,
	subscription.Module,
	membership.Module,
	sweeper.Module,
	statistics.Module,
	notificationlog.Module,
	notificationhandler.Module,
	bot.Module,
	server.Module,
)
