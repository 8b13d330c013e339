package main

import (
	"log/slog"

	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/core/ops"
	"github.com/jdelaire/skybot/internal/config"
	"github.com/jdelaire/skybot/internal/polls"
)

type deps struct {
	cfg      config.Config
	botName  string
	notifier core.Notifier
	auth     core.Authorizer
	weather  ops.WeatherSource
	cities   ops.CityMatcher
	store    *polls.Store
	workflow *polls.Workflow
	logger   *slog.Logger
}

// buildRouter registers handler groups in priority order. Earlier groups win
// when several could match, so catch-all text handling comes last.
func buildRouter(d deps) (*core.Router, *ops.Registry) {
	reg := ops.NewRegistry()
	r := core.NewRouter()

	reply := func(op ops.Op) core.Handler {
		return ops.Reply(op, d.notifier, d.logger)
	}
	command := func(names ...string) core.Filter {
		return core.CommandFor(d.botName, names...)
	}

	start := &ops.StartOp{}
	help := &ops.HelpOp{Registry: reg, BotName: d.botName}
	clock := &ops.TimeOp{Source: d.weather}
	wx := &ops.WeatherOp{Source: d.weather}
	forecast := &ops.ForecastOp{Source: d.weather}
	top := &ops.TopOp{Lines: d.cfg.TopNumLines}
	photo := &ops.Photo{Dir: d.cfg.PhotoDir, Notifier: d.notifier, Logger: d.logger}
	logOp := &ops.LogOp{Path: d.cfg.CommandLogFile, Lines: d.cfg.LogNumLines}
	status := &ops.StatusOp{Version: d.cfg.Version, ActivePolls: d.store.Len}
	pollDelete := &ops.PollDelete{Workflow: d.workflow, Notifier: d.notifier}
	reg.MustRegister(start, help, clock, wx, forecast, top, photo, pollDelete, logOp, status)

	inline := &ops.Inline{Source: d.weather, Cities: d.cities, Notifier: d.notifier, Logger: d.logger}
	r.Group("inline", nil).
		InlineQuery("weather", core.InlineQueryPresent, inline.Handle)
	r.Fallback(core.KindInlineQuery, inline.Instructions)

	r.Group("start", nil).Message("start", command("start"), reply(start))
	r.Group("help", nil).Message("help", command("help"), reply(help))
	r.Group("time", nil).Message("time", command("time"), reply(clock))

	r.Group("admin", nil).
		Use(core.AdminGate(d.auth, d.notifier, d.logger)).
		Message("top", command("top"), reply(top)).
		Message("log", command("log"), reply(logOp)).
		Message("status", command("status"), reply(status))

	r.Group("photo", nil).Message("photo", command("photo"), photo.Handle)
	r.Group("forecast", nil).Message("forecast", command("forecast"), reply(forecast))
	r.Group("weather", nil).
		Message("weather", command("weather"), reply(wx)).
		Message("location", core.HasLocation, ops.LocationReport(d.weather, d.notifier, d.logger))

	r.Group("group", core.MessagesOnly(core.ChatTypeIn(core.ChatGroup, core.ChatSupergroup))).
		MemberUpdate("welcome", core.MemberJoined, ops.WelcomeMember(d.notifier)).
		Message("welcome-new", core.HasNewChatMembers, ops.WelcomeNewMembers(d.notifier))

	r.Group("polls", nil).
		Message("poll_delete", command("poll_delete"), pollDelete.Handle).
		Poll("resolve", core.PollClosed, ops.ResolvePoll(d.workflow))

	r.Group("autoreply", nil).Message("autoreply", core.HasText, ops.AutoReply(ops.DefaultAutoReplies, d.notifier))

	return r, reg
}
