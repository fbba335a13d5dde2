package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/montage-bot/internal/access"
	"github.com/Spok95/montage-bot/internal/domain/materials"
	"github.com/Spok95/montage-bot/internal/domain/objects"
	"github.com/Spok95/montage-bot/internal/domain/regions"
	"github.com/Spok95/montage-bot/internal/infra/metrics"
	"github.com/Spok95/montage-bot/internal/scenario"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	log      *slog.Logger
	access   *access.Repo
	resolver *access.Resolver
	engine   *scenario.Engine
	regions  *regions.Repo
	objects  *objects.Repo
	mats     *materials.Repo
	ledger   *materials.Ledger
	// mainAdmin — chat id главного админа; роль назначается автоматически
	mainAdmin int64
}

func New(api *tgbotapi.BotAPI, log *slog.Logger,
	accessRepo *access.Repo, resolver *access.Resolver,
	engine *scenario.Engine, regionsRepo *regions.Repo,
	objectsRepo *objects.Repo, matsRepo *materials.Repo,
	ledger *materials.Ledger, mainAdmin int64) *Bot {

	return &Bot{
		api: api, log: log, access: accessRepo, resolver: resolver,
		engine: engine, regions: regionsRepo, objects: objectsRepo,
		mats: matsRepo, ledger: ledger, mainAdmin: mainAdmin,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				metrics.UpdatesTotal.WithLabelValues("message").Inc()
				b.safely(upd.Message.Chat.ID, func() { b.onMessage(ctx, upd.Message) })
			} else if upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil {
				metrics.UpdatesTotal.WithLabelValues("callback").Inc()
				b.safely(upd.CallbackQuery.Message.Chat.ID, func() { b.onCallback(ctx, upd.CallbackQuery) })
			}
		}
	}
}

// safely — граница диспетчера: ни одна паника обработчика не должна
// дойти до транспортного цикла.
func (b *Bot) safely(chatID int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanics.Inc()
			b.log.Error("handler panic", "chat_id", chatID, "panic", r)
			b.send(tgbotapi.NewMessage(chatID, "Что-то пошло не так. Попробуйте ещё раз."))
		}
	}()
	fn()
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}
