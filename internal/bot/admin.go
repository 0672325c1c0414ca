package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) string {
	adminID := msg.From.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "queue":
		return b.handleQueue(ctx)
	case "approve":
		return b.handleApprove(ctx, adminID, args)
	case "reject_video":
		return b.handleRejectVideo(ctx, adminID, args)
	case "pending":
		return b.handlePending(ctx)
	case "retry":
		return b.handleRetry(ctx, adminID, args)
	case "reject":
		return b.handleRejectPayout(ctx, adminID, args)
	case "tier":
		return b.handleTier(ctx, adminID, args)
	case "ban":
		return b.handleBanCmd(ctx, adminID, args)
	case "unban":
		return b.handleUnban(ctx, adminID, args)
	case "setbalance":
		return b.handleSetBalance(ctx, adminID, args)
	case "keys":
		return b.handleKeys(ctx, adminID, args)
	case "revoke_key":
		return b.handleRevokeKey(ctx, adminID, args)
	case "stats":
		return b.handleStats(ctx)
	case "invoice":
		return b.handleInvoice(ctx, adminID, args)
	case "token":
		return b.handleToken(adminID)
	default:
		return "❌ Неизвестная команда. Используйте /help для списка команд."
	}
}

func (b *Bot) handleQueue(ctx context.Context) string {
	videos, err := b.videos.ListPendingModeration(ctx, 20)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if len(videos) == 0 {
		return "✅ Очередь модерации пуста"
	}

	var sb strings.Builder
	sb.WriteString("<b>🎬 Видео на модерации</b>\n\n")
	for _, v := range videos {
		sb.WriteString(fmt.Sprintf("🆔 #%d | автор %d | %s | 👁 %d\n%s\n\n",
			v.ID, v.CreatorID, v.Platform, v.Views, v.URL))
	}
	sb.WriteString("/approve <id> [сумма ₽] — одобрить\n/reject_video <id> — отклонить")
	return sb.String()
}

func (b *Bot) handleApprove(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) < 1 || len(parts) > 2 {
		return "❌ Использование: /approve <video_id> [сумма ₽]"
	}

	videoID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный ID видео"
	}

	var amountKop int64
	if len(parts) == 2 {
		amountKop, err = parseRub(parts[1])
		if err != nil {
			return "❌ Неверная сумма"
		}
	}

	if err := b.payouts.ApproveVideo(ctx, adminID, videoID, amountKop); err != nil {
		switch {
		case errors.Is(err, service.ErrVideoNotFound):
			return "❌ Видео не найдено"
		case errors.Is(err, service.ErrAlreadyModerated):
			return "⚠️ Видео уже проверено"
		case errors.Is(err, service.ErrCreatorBanned):
			return "🚫 Автор заблокирован, видео не одобрено"
		case errors.Is(err, service.ErrInvalidAmount):
			return "❌ Для YouTube укажите сумму: /approve <id> <сумма ₽>"
		}
		advice := service.FailureAdvice(err)
		if advice != "" {
			return fmt.Sprintf("⚠️ Видео одобрено, но выплата не прошла: %s\nПовторить: /retry (см. /pending)", advice)
		}
		if errors.Is(err, service.ErrRateUnavailable) || errors.Is(err, service.ErrInsufficientFloat) {
			return "⚠️ Видео одобрено, выплата в очереди — см. /pending"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Видео #%d одобрено", videoID)
}

func (b *Bot) handleRejectVideo(ctx context.Context, adminID int64, args string) string {
	videoID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Использование: /reject_video <video_id>"
	}

	if err := b.payouts.RejectVideo(ctx, adminID, videoID); err != nil {
		switch {
		case errors.Is(err, service.ErrVideoNotFound):
			return "❌ Видео не найдено"
		case errors.Is(err, service.ErrAlreadyModerated):
			return "⚠️ Видео уже проверено"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("❌ Видео #%d отклонено", videoID)
}

func (b *Bot) handlePending(ctx context.Context) string {
	payouts, err := b.payouts.ListPending(ctx, 20)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	if len(payouts) == 0 {
		return "✅ Нет открытых выплат"
	}

	var sb strings.Builder
	sb.WriteString("<b>💸 Открытые выплаты</b>\n\n")
	for _, p := range payouts {
		kind := "баланс"
		if p.VideoID > 0 {
			kind = fmt.Sprintf("видео #%d", p.VideoID)
		}
		sb.WriteString(fmt.Sprintf("🆔 #%d | автор %d | %s | %s\n", p.ID, p.CreatorID, kind, formatKop(p.AmountKop)))
		if p.Note != "" {
			sb.WriteString(fmt.Sprintf("└ %s\n", p.Note))
		}
	}
	sb.WriteString("\n/retry <id> — повторить\n/reject <id> <причина> — отклонить")
	return sb.String()
}

func (b *Bot) handleRetry(ctx context.Context, adminID int64, args string) string {
	payoutID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Использование: /retry <payout_id>"
	}

	if err := b.payouts.AdminRetryPayout(ctx, adminID, payoutID); err != nil {
		if errors.Is(err, service.ErrNotRetryable) {
			return "⚠️ Выплата уже закрыта"
		}
		advice := service.FailureAdvice(err)
		if advice != "" {
			return fmt.Sprintf("❌ Выплата снова не прошла: %s", advice)
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Выплата #%d выполнена", payoutID)
}

func (b *Bot) handleRejectPayout(ctx context.Context, adminID int64, args string) string {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		return "❌ Использование: /reject <payout_id> <причина>"
	}

	payoutID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный ID выплаты"
	}

	if err := b.payouts.AdminRejectPayout(ctx, adminID, payoutID, parts[1]); err != nil {
		if errors.Is(err, service.ErrNotRetryable) {
			return "⚠️ Выплата уже закрыта"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("❌ Выплата #%d отклонена", payoutID)
}

func (b *Bot) handleTier(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "❌ Использование: /tier <creator_id> <bronze|gold>"
	}

	creatorID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный ID автора"
	}

	tier := domain.Tier(parts[1])
	if err := b.admin.SetTier(ctx, adminID, creatorID, tier); err != nil {
		switch {
		case errors.Is(err, service.ErrCreatorNotFound):
			return "❌ Автор не найден"
		case errors.Is(err, service.ErrTierTransition):
			return "❌ Такой переход уровня не разрешён"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Автор %d переведён на уровень %s", creatorID, tier)
}

func (b *Bot) handleBanCmd(ctx context.Context, adminID int64, args string) string {
	creatorID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Использование: /ban <creator_id>"
	}

	if err := b.admin.Ban(ctx, adminID, creatorID); err != nil {
		if errors.Is(err, service.ErrCreatorNotFound) {
			return "❌ Автор не найден"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("🚫 Автор %d заблокирован", creatorID)
}

func (b *Bot) handleUnban(ctx context.Context, adminID int64, args string) string {
	creatorID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Использование: /unban <creator_id>"
	}

	if err := b.admin.SetTier(ctx, adminID, creatorID, domain.TierBronze); err != nil {
		switch {
		case errors.Is(err, service.ErrCreatorNotFound):
			return "❌ Автор не найден"
		case errors.Is(err, service.ErrTierTransition):
			return "⚠️ Автор не заблокирован"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Автор %d разблокирован", creatorID)
}

func (b *Bot) handleSetBalance(ctx context.Context, adminID int64, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "❌ Использование: /setbalance <creator_id> <сумма ₽>"
	}

	creatorID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "❌ Неверный ID автора"
	}

	amountKop, err := parseRub(parts[1])
	if err != nil {
		return "❌ Неверная сумма"
	}

	if err := b.ledger.SetBalance(ctx, adminID, creatorID, amountKop); err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			return "❌ Сумма не может быть отрицательной"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("✅ Баланс автора %d установлен: %s", creatorID, formatKop(amountKop))
}

func (b *Bot) handleKeys(ctx context.Context, adminID int64, args string) string {
	values := strings.Fields(args)
	if len(values) == 0 {
		return "❌ Использование: /keys <ключ> [ключ...]"
	}

	added, err := b.admin.UploadKeys(ctx, adminID, values)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	skipped := len(values) - added
	if skipped > 0 {
		return fmt.Sprintf("✅ Загружено %d ключей, пропущено дубликатов: %d", added, skipped)
	}
	return fmt.Sprintf("✅ Загружено %d ключей", added)
}

func (b *Bot) handleRevokeKey(ctx context.Context, adminID int64, args string) string {
	keyID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "❌ Использование: /revoke_key <key_id>"
	}

	if err := b.admin.RevokeKey(ctx, adminID, keyID); err != nil {
		if errors.Is(err, service.ErrKeyNotRevocable) {
			return "⚠️ Ключ не выдан, отозвать нечего"
		}
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("🚫 Ключ #%d отозван", keyID)
}

func (b *Bot) handleStats(ctx context.Context) string {
	stats, err := b.admin.Stats(ctx)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}

	return fmt.Sprintf(`<b>📊 Статистика</b>

• 👥 Авторов: %d
• 💸 Открытых выплат: %d
• 🔑 Свободных ключей: %d
• 💰 Резерв: %.2f USDT`,
		stats.Creators,
		stats.PendingPayouts,
		stats.AvailableKeys,
		stats.FloatUSDT,
	)
}

func (b *Bot) handleInvoice(ctx context.Context, adminID int64, args string) string {
	amount, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
	if err != nil || amount <= 0 {
		return "❌ Использование: /invoice <сумма USDT>"
	}

	inv, err := b.admin.CreateFloatInvoice(ctx, adminID, amount)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("💳 Счёт на %.2f USDT:\n%s", amount, inv.BotInvoiceURL)
}

func (b *Bot) handleToken(adminID int64) string {
	token, err := service.GenerateJWT(adminID)
	if err != nil {
		return fmt.Sprintf("❌ Ошибка: %v", err)
	}
	return fmt.Sprintf("🔑 Токен для панели (24ч):\n<code>%s</code>", token)
}
