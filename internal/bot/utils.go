package bot

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/montage-bot/internal/access"
	"github.com/Spok95/montage-bot/internal/domain/materials"
	"github.com/Spok95/montage-bot/internal/domain/objects"
)

/*** HELPERS ***/

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) error {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	_, err := b.api.Request(resp)
	return err
}

// replyErr — общий ответ на неожиданную ошибку; детали только в лог.
func (b *Bot) replyErr(chatID int64, err error) {
	b.log.Error("handler error", "chat_id", chatID, "err", err)
	b.send(tgbotapi.NewMessage(chatID, "Что-то пошло не так. Попробуйте ещё раз."))
}

// downloadTelegramFile скачивает файл по FileID через Telegram API.
func (b *Bot) downloadTelegramFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func fmtQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseIDArg достаёт положительный идентификатор из args[i].
func parseIDArg(args []string, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	v, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

func renderProblems(list []objects.Problem) string {
	if len(list) == 0 {
		return "Открытых проблем нет."
	}
	var sb strings.Builder
	sb.WriteString("Открытые проблемы:\n")
	for _, p := range list {
		sb.WriteString(fmt.Sprintf("№%d (%s): %s\n", p.ID, p.CreatedAt.Format(dateLayout), p.Description))
	}
	sb.WriteString("Закрыть: /resolve_problem <номер>")
	return sb.String()
}

func renderMaintenance(list []objects.Maintenance) string {
	if len(list) == 0 {
		return "Запланированных ТО нет."
	}
	var sb strings.Builder
	sb.WriteString("Предстоящие ТО:\n")
	for _, m := range list {
		sb.WriteString(fmt.Sprintf("— %s: %s\n", m.DueDate.Format(dateLayout), m.Title))
	}
	return sb.String()
}

func renderRoles(roles map[int64]access.Role) string {
	if len(roles) == 0 {
		return "Роли пока никому не назначены."
	}
	ids := make([]int64, 0, len(roles))
	for id := range roles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sb strings.Builder
	sb.WriteString("Назначенные роли:\n")
	for _, id := range ids {
		sb.WriteString(fmt.Sprintf("%d — %s\n", id, roles[id]))
	}
	return sb.String()
}

func renderBalance(rep *materials.BalanceReport) string {
	if len(rep.Materials) == 0 {
		return "На объекте пока нет материалов."
	}
	var sb strings.Builder
	sb.WriteString("Сверка материалов:\n")
	for _, mb := range rep.Materials {
		if mb.Balanced {
			sb.WriteString(fmt.Sprintf("✅ %s: %s %s, распределено полностью\n",
				mb.Material.Name, fmtQty(mb.Material.Quantity), mb.Material.Unit))
			continue
		}
		sb.WriteString(fmt.Sprintf("⚠️ %s: всего %s, по участкам %s, разница %s\n",
			mb.Material.Name, fmtQty(mb.Material.Quantity), fmtQty(mb.Allocated), fmtQty(mb.Difference)))
	}
	if len(rep.Sections) > 0 {
		sb.WriteString("\nПо участкам:\n")
		for _, sh := range rep.Sections {
			sb.WriteString(fmt.Sprintf("— %s:\n", sh.Section.Name))
			if len(sh.Items) == 0 {
				sb.WriteString("   (пусто)\n")
				continue
			}
			for _, it := range sh.Items {
				sb.WriteString(fmt.Sprintf("   %s — %s\n", it.MaterialName, fmtQty(it.Quantity)))
			}
		}
	}
	return sb.String()
}

func renderMontage(mat *materials.Material, lines []materials.MontageLine) string {
	if len(lines) == 0 {
		return fmt.Sprintf("Материал «%s» не распределён по участкам.", mat.Name)
	}
	statusRU := map[materials.MontageStatus]string{
		materials.StatusCompleted:  "готово",
		materials.StatusInProgress: "в работе",
		materials.StatusNotStarted: "не начато",
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Монтаж «%s»:\n", mat.Name))
	for _, l := range lines {
		sb.WriteString(fmt.Sprintf("— участок %d: %s/%s %s (%s)\n",
			l.SectionID, fmtQty(l.Installed), fmtQty(l.Allocated), mat.Unit, statusRU[l.Status]))
	}
	return sb.String()
}
