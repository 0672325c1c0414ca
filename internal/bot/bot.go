package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/service"
	"zenithmedia_bot/internal/videometa"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot serves both creators and admins over one Telegram connection. Admin
// commands are gated on the configured ID list.
type Bot struct {
	bot      *tgbotapi.BotAPI
	creators *service.CreatorService
	videos   *service.VideoService
	payouts  *service.PayoutService
	admin    *service.AdminService
	ledger   *service.LedgerService
	adminIDs []int64
	stopCh   chan struct{}
	wg       sync.WaitGroup
	log      *slog.Logger
}

func New(
	token string,
	creators *service.CreatorService,
	videos *service.VideoService,
	payouts *service.PayoutService,
	admin *service.AdminService,
	ledger *service.LedgerService,
	adminIDs []int64,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	return &Bot{
		bot:      api,
		creators: creators,
		videos:   videos,
		payouts:  payouts,
		admin:    admin,
		ledger:   ledger,
		adminIDs: adminIDs,
		stopCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start starts listening for commands
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var response string

	switch msg.Command() {
	case "start":
		response = b.handleStart(ctx, msg)

	case "help":
		response = b.helpMessage(b.isAdmin(msg.From.ID))

	case "submit":
		response = b.handleSubmit(ctx, msg.From.ID, msg.CommandArguments())

	case "videos":
		response = b.handleVideos(ctx, msg.From.ID)

	case "balance":
		response = b.handleBalance(ctx, msg.From.ID)

	case "payout":
		response = b.handlePayout(ctx, msg.From.ID)

	case "payout_video":
		response = b.handlePayoutVideo(ctx, msg.From.ID, msg.CommandArguments())

	case "ref":
		response = b.handleRef(ctx, msg.From.ID)

	default:
		if b.isAdmin(msg.From.ID) {
			response = b.handleAdminCommand(ctx, msg)
		} else {
			response = "❌ Неизвестная команда. Используйте /help для списка команд."
		}
	}

	if response == "" {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *Bot) helpMessage(admin bool) string {
	base := `<b>🎬 ZenithMedia</b>

<b>Команды:</b>
/submit &lt;tiktok|youtube&gt; &lt;ссылка&gt; - Отправить видео на проверку
/videos - Мои видео
/balance - Баланс и профиль
/payout - Вывести баланс
/payout_video &lt;id&gt; - Повторить выплату за видео
/ref - Реферальная ссылка`

	if !admin {
		return base
	}

	return base + `

<b>🔧 Администрирование:</b>
/queue - Видео на модерации
/approve &lt;video_id&gt; [сумма ₽] - Одобрить видео
/reject_video &lt;video_id&gt; - Отклонить видео
/pending - Открытые выплаты
/retry &lt;payout_id&gt; - Повторить выплату
/reject &lt;payout_id&gt; &lt;причина&gt; - Отклонить выплату
/tier &lt;creator_id&gt; &lt;bronze|gold&gt; - Сменить уровень
/ban &lt;creator_id&gt; - Заблокировать
/unban &lt;creator_id&gt; - Разблокировать
/setbalance &lt;creator_id&gt; &lt;сумма ₽&gt; - Установить баланс
/keys &lt;ключ&gt; [ключ...] - Загрузить ключи
/revoke_key &lt;key_id&gt; - Отозвать выданный ключ
/stats - Статистика
/invoice &lt;USDT&gt; - Счёт на пополнение резерва
/token - Токен для веб-панели`
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) string {
	creator, err := b.creators.Register(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName, msg.CommandArguments())
	if err != nil {
		b.log.Error("registration failed", "tg_id", msg.From.ID, "error", err)
		return "❌ Не удалось зарегистрироваться, попробуйте позже"
	}

	greeting := fmt.Sprintf("👋 Добро пожаловать, %s!\n\n", msg.From.FirstName)
	if creator.ReferrerID > 0 {
		greeting += "Вы пришли по приглашению — ваш пригласивший будет получать бонус с ваших выплат (не из вашей доли).\n\n"
	}
	return greeting + b.helpMessage(b.isAdmin(msg.From.ID))
}

func (b *Bot) handleSubmit(ctx context.Context, tgID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "❌ Использование: /submit <tiktok|youtube> <ссылка>"
	}

	creator, err := b.creators.Get(ctx, tgID)
	if err != nil {
		return "❌ Сначала отправьте /start"
	}

	video, err := b.videos.Submit(ctx, creator.ID, domain.Platform(parts[0]), parts[1])
	if err != nil {
		var rejected *videometa.RejectedError
		switch {
		case errors.Is(err, service.ErrInvalidPlatform):
			return "❌ Платформа должна быть tiktok или youtube"
		case errors.Is(err, service.ErrDuplicateVideo):
			return "❌ Это видео уже было отправлено"
		case errors.Is(err, service.ErrCreatorBanned):
			return "🚫 Ваш аккаунт заблокирован"
		case errors.As(err, &rejected):
			switch rejected.Reason {
			case videometa.ReasonWrongAuthor:
				return "❌ Видео опубликовано не с вашего аккаунта"
			case videometa.ReasonTooOld:
				return "❌ Видео опубликовано слишком давно"
			default:
				return "❌ Не удалось разобрать ссылку, проверьте её"
			}
		case errors.Is(err, videometa.ErrUnavailable):
			return "⏳ Сервис проверки видео недоступен, попробуйте позже"
		}
		b.log.Error("submit failed", "tg_id", tgID, "error", err)
		return "❌ Не удалось отправить видео, попробуйте позже"
	}

	return fmt.Sprintf("✅ Видео #%d отправлено на модерацию\n👁 Просмотров на момент отправки: %d", video.ID, video.Views)
}

func (b *Bot) handleVideos(ctx context.Context, tgID int64) string {
	creator, err := b.creators.Get(ctx, tgID)
	if err != nil {
		return "❌ Сначала отправьте /start"
	}

	videos, err := b.videos.ListByCreator(ctx, creator.ID, 10)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if len(videos) == 0 {
		return "У вас пока нет видео. Отправьте первое: /submit"
	}

	var sb strings.Builder
	sb.WriteString("<b>🎬 Ваши видео</b>\n\n")
	for _, v := range videos {
		sb.WriteString(fmt.Sprintf("%s #%d | %s | 👁 %d", statusEmoji(v.Status), v.ID, v.Platform, v.Views))
		if v.Earnings > 0 {
			sb.WriteString(fmt.Sprintf(" | %s", formatKop(v.Earnings)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Bot) handleBalance(ctx context.Context, tgID int64) string {
	creator, err := b.creators.Get(ctx, tgID)
	if err != nil {
		return "❌ Сначала отправьте /start"
	}

	stats, err := b.creators.ReferralStats(ctx, creator.ID)
	if err != nil {
		stats = &domain.ReferralStats{}
	}

	return fmt.Sprintf(`<b>👤 Профиль</b>

• Уровень: %s
• 💰 Баланс: %s
• 💸 Выведено всего: %s
• 👥 Рефералов: %d
• 🎁 Заработано с рефералов: %s`,
		creator.Tier,
		formatKop(creator.Balance),
		formatKop(creator.TotalWithdrawn),
		stats.TotalReferrals,
		formatKop(stats.TotalEarned),
	)
}

func (b *Bot) handlePayout(ctx context.Context, tgID int64) string {
	creator, err := b.creators.Get(ctx, tgID)
	if err != nil {
		return "❌ Сначала отправьте /start"
	}

	req, err := b.payouts.RequestBalancePayout(ctx, creator.ID)
	if err != nil {
		b.maybeAlertAdmins(creator.ID, err)
		return b.payoutErrorMessage(err)
	}

	return fmt.Sprintf("✅ Выплата %s отправлена (%.2f USDT)\nСредства придут в @CryptoBot", formatKop(req.AmountKop), req.AmountUSDT)
}

func (b *Bot) handlePayoutVideo(ctx context.Context, tgID int64, args string) string {
	videoID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Использование: /payout_video <id>"
	}

	creator, err := b.creators.Get(ctx, tgID)
	if err != nil {
		return "❌ Сначала отправьте /start"
	}

	if err := b.payouts.RequestVideoPayout(ctx, creator.ID, videoID); err != nil {
		b.maybeAlertAdmins(creator.ID, err)
		return b.payoutErrorMessage(err)
	}
	return fmt.Sprintf("✅ Выплата за видео #%d отправлена", videoID)
}

func (b *Bot) payoutErrorMessage(err error) string {
	var rf *service.RailFailure
	switch {
	case errors.Is(err, service.ErrCreatorBanned):
		return "🚫 Ваш аккаунт заблокирован"
	case errors.Is(err, service.ErrAmountBelowMinimum):
		return "❌ Баланс меньше минимальной суммы вывода"
	case errors.Is(err, service.ErrBelowMinimum):
		return "❌ Сумма меньше минимального перевода, она останется на балансе"
	case errors.Is(err, service.ErrCooldownActive):
		return "⏳ Выплата уже в обработке, повторить можно позже"
	case errors.Is(err, service.ErrRateUnavailable):
		return "⏳ Курс обмена временно недоступен, заявка сохранена — попробуйте позже"
	case errors.Is(err, service.ErrInsufficientFloat):
		return "⏳ Выплата поставлена в очередь, администраторы уведомлены"
	case errors.Is(err, service.ErrAlreadyPaid):
		return "✅ Эта выплата уже выполнена"
	case errors.Is(err, service.ErrNotOwner), errors.Is(err, service.ErrVideoNotFound):
		return "❌ Видео не найдено"
	case errors.Is(err, service.ErrVideoNotApproved):
		return "❌ Видео ещё не одобрено"
	case errors.Is(err, service.ErrFundsOnBalance):
		return "❌ Заработок за это видео уже зачислен на баланс, используйте /payout"
	case errors.Is(err, service.ErrNotRetryable):
		return "❌ Эта выплата закрыта"
	case errors.As(err, &rf):
		if rf.Kind.Retryable() {
			return "⏳ Выплата не прошла, заявка сохранена — администраторы уведомлены"
		}
		return "❌ Выплата не прошла. Откройте @CryptoBot и попробуйте снова"
	}
	b.log.Error("payout failed", "error", err)
	return "❌ Не удалось выполнить выплату, попробуйте позже"
}

// maybeAlertAdmins pings the operators about dispatch failures that need
// their attention: a retryable rail failure or an empty settlement reserve.
func (b *Bot) maybeAlertAdmins(creatorID int64, err error) {
	var rf *service.RailFailure
	switch {
	case errors.Is(err, service.ErrInsufficientFloat):
		b.NotifyAdmins(fmt.Sprintf("⚠️ Выплата автора %d не прошла: резерв USDT исчерпан. /invoice для пополнения, затем /pending", creatorID))
	case errors.As(err, &rf):
		advice := service.FailureAdvice(err)
		b.NotifyAdmins(fmt.Sprintf("⚠️ Выплата автора %d не прошла: %s\nСм. /pending", creatorID, advice))
	}
}

func (b *Bot) handleRef(ctx context.Context, tgID int64) string {
	creator, err := b.creators.Get(ctx, tgID)
	if err != nil {
		return "❌ Сначала отправьте /start"
	}

	return fmt.Sprintf(`<b>👥 Реферальная программа</b>

Приглашайте авторов и получайте бонус с каждой их выплаты. Бонус платит сервис, доля приглашённого не уменьшается.

Ваша ссылка:
%s`, b.creators.ReferralLink(creator))
}

// NotifyCreator delivers a message to one creator; failures are logged only.
func (b *Bot) NotifyCreator(tgID int64, text string) {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = "HTML"
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Error("failed to notify creator", "tg_id", tgID, "error", err)
	}
}

// NotifyAdmins fans a message out to every configured admin.
func (b *Bot) NotifyAdmins(text string) {
	for _, adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, text)
		msg.ParseMode = "HTML"
		if _, err := b.bot.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}

func statusEmoji(s domain.VideoStatus) string {
	switch s {
	case domain.VideoStatusApproved:
		return "✅"
	case domain.VideoStatusRejected:
		return "❌"
	case domain.VideoStatusPaidOut:
		return "💸"
	default:
		return "⏳"
	}
}

func formatKop(kop int64) string {
	return fmt.Sprintf("%.2f ₽", float64(kop)/100)
}

// parseRub turns a ruble amount like "130" or "99.50" into kopecks.
func parseRub(s string) (int64, error) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	return int64(v*100 + 0.5), nil
}
