package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/montage-bot/internal/access"
	"github.com/Spok95/montage-bot/internal/dialog"
	"github.com/Spok95/montage-bot/internal/domain/materials"
	"github.com/Spok95/montage-bot/internal/domain/objects"
	"github.com/Spok95/montage-bot/internal/infra/metrics"
	"github.com/Spok95/montage-bot/internal/scenario"
)

const dateLayout = "02.01.2006"

// interruptCommands обрабатываются даже посреди активного сценария.
var interruptCommands = map[string]bool{"cancel": true}

func scopeOf(chat *tgbotapi.Chat) access.ChatScope {
	if chat.IsPrivate() {
		return access.ScopePrivate
	}
	return access.ScopeGroup
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	// файл, присланный посреди сценария — это ввод файлового шага
	raw := msg.Text
	if msg.Document != nil {
		raw = msg.Document.FileID
	}

	if msg.IsCommand() {
		cmd := msg.Command()
		d, err := b.resolver.Resolve(ctx, userID, cmd, scopeOf(msg.Chat))
		if err != nil {
			b.log.Error("resolve failed", "err", err, "command", cmd, "user_id", userID)
			b.send(tgbotapi.NewMessage(chatID, "Что-то пошло не так. Попробуйте ещё раз."))
			return
		}
		if !d.Allowed {
			metrics.PermissionDenied.WithLabelValues(cmd).Inc()
			b.send(tgbotapi.NewMessage(chatID, "Доступ запрещён: "+d.Reason))
			return
		}

		if interruptCommands[cmd] {
			b.handleCancel(ctx, userID, chatID)
			return
		}

		active, err := b.engine.Active(ctx, userID, chatID)
		if err != nil {
			b.log.Error("state lookup failed", "err", err, "user_id", userID)
			b.send(tgbotapi.NewMessage(chatID, "Что-то пошло не так. Попробуйте ещё раз."))
			return
		}
		if active {
			// посреди формы любой текст, включая команды — ввод формы
			b.handleFormInput(ctx, userID, chatID, msg.Text)
			return
		}

		b.handleCommand(ctx, msg, cmd)
		return
	}

	b.handleFormInput(ctx, userID, chatID, raw)
}

func (b *Bot) handleCancel(ctx context.Context, userID, chatID int64) {
	res, err := b.engine.Cancel(ctx, userID, chatID)
	if err != nil {
		b.log.Error("cancel failed", "err", err, "user_id", userID)
		b.send(tgbotapi.NewMessage(chatID, "Что-то пошло не так. Попробуйте ещё раз."))
		return
	}
	if res.Kind == scenario.KindNoActive {
		b.send(tgbotapi.NewMessage(chatID, "Сейчас нет активного сценария."))
		return
	}
	metrics.Scenarios.WithLabelValues(res.Scenario, "cancelled").Inc()
	b.send(tgbotapi.NewMessage(chatID, "Отменено."))
}

func (b *Bot) handleFormInput(ctx context.Context, userID, chatID int64, raw string) {
	res, err := b.engine.Submit(ctx, userID, chatID, raw)
	if err != nil {
		b.log.Error("submit failed", "err", err, "user_id", userID)
		b.send(tgbotapi.NewMessage(chatID, "Что-то пошло не так. Попробуйте ещё раз."))
		return
	}

	switch res.Kind {
	case scenario.KindNoActive:
		b.send(tgbotapi.NewMessage(chatID, "Не знаю такую команду. Наберите /help"))
	case scenario.KindCancelled:
		metrics.Scenarios.WithLabelValues(res.Scenario, "cancelled").Inc()
		b.send(tgbotapi.NewMessage(chatID, "Отменено."))
	case scenario.KindRejected:
		metrics.Scenarios.WithLabelValues(res.Scenario, "rejected").Inc()
		// шаг не сдвинулся; переспрашиваем с причиной
		b.send(tgbotapi.NewMessage(chatID, res.Reason))
	case scenario.KindPrompt:
		m := tgbotapi.NewMessage(chatID, res.Prompt.Text)
		m.ReplyMarkup = navKeyboard()
		b.send(m)
	case scenario.KindCompleted:
		metrics.Scenarios.WithLabelValues(res.Scenario, "completed").Inc()
		b.finalize(ctx, userID, chatID, res)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, cmd string) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.Fields(msg.CommandArguments())

	switch cmd {
	case "start":
		// главный админ из конфига получает роль автоматически
		if userID == b.mainAdmin {
			role, err := b.access.RoleByUser(ctx, userID)
			if err == nil && role != access.RoleMainAdmin {
				if err := b.access.SetRole(ctx, userID, access.RoleMainAdmin); err != nil {
					b.log.Error("auto main_admin failed", "err", err)
				}
			}
		}
		role, _ := b.access.RoleByUser(ctx, userID)
		if role == access.RoleNone {
			b.send(tgbotapi.NewMessage(chatID,
				"Привет! Это бот учёта сервисных и монтажных объектов.\n"+
					"Доступ к командам откроется после назначения роли администратором."))
			return
		}
		b.send(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Привет! Ваша роль: %s.\nСписок команд — /help", role)))

	case "help":
		b.send(tgbotapi.NewMessage(chatID, helpText()))

	case "regions":
		list, err := b.regions.List(ctx)
		if err != nil {
			b.replyErr(chatID, err)
			return
		}
		if len(list) == 0 {
			b.send(tgbotapi.NewMessage(chatID, "Регионов пока нет."))
			return
		}
		var sb strings.Builder
		sb.WriteString("Регионы:\n")
		for _, r := range list {
			sb.WriteString(fmt.Sprintf("%d. %s — %s\n", r.ID, r.ShortName, r.FullName))
		}
		b.send(tgbotapi.NewMessage(chatID, sb.String()))

	case "objects":
		b.handleObjectsList(ctx, chatID, args)

	case "balance":
		b.handleBalance(ctx, chatID, args)

	case "progress":
		b.handleProgress(ctx, chatID, args)

	case "problems":
		b.handleProblems(ctx, chatID, args)

	case "resolve_problem":
		b.handleResolveProblem(ctx, chatID, args)

	case "maintenance":
		b.handleMaintenance(ctx, chatID, args)

	case "docs":
		b.handleDocuments(ctx, chatID, args)

	case "set_quantity":
		b.handleSetQuantity(ctx, chatID, args)

	case "roles":
		b.handleRoles(ctx, chatID)

	case "del_object":
		b.handleDeleteObject(ctx, chatID, args)

	case "assign_role":
		b.handleAssignRole(ctx, chatID, userID, args)

	case "revoke_role":
		b.handleRevokeRole(ctx, chatID, args)

	case "permission":
		b.handlePermission(ctx, chatID, args)

	case "new_region":
		b.startScenario(ctx, userID, chatID, "create_region")
	case "new_object":
		b.startScenario(ctx, userID, chatID, "create_object")
	case "add_material":
		b.startScenario(ctx, userID, chatID, "add_material")
	case "add_section":
		b.startScenario(ctx, userID, chatID, "add_section")
	case "add_problem":
		b.startScenario(ctx, userID, chatID, "add_problem")
	case "add_maintenance":
		b.startScenario(ctx, userID, chatID, "add_maintenance")
	case "add_project":
		b.startScenario(ctx, userID, chatID, "add_project")
	case "add_document":
		b.startScenario(ctx, userID, chatID, "add_document")
	case "allocate":
		b.startScenario(ctx, userID, chatID, "allocate")
	case "install":
		b.startScenario(ctx, userID, chatID, "install")
	case "import_plan":
		b.startScenario(ctx, userID, chatID, "import_plan")

	default:
		b.send(tgbotapi.NewMessage(chatID, "Не знаю такую команду. Наберите /help"))
	}
}

func (b *Bot) startScenario(ctx context.Context, userID, chatID int64, id string) {
	p, err := b.engine.Start(ctx, userID, chatID, id)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	metrics.Scenarios.WithLabelValues(id, "started").Inc()
	m := tgbotapi.NewMessage(chatID, p.Text)
	m.ReplyMarkup = navKeyboard()
	b.send(m)
}

/*** COMMAND HANDLERS ***/

func (b *Bot) handleObjectsList(ctx context.Context, chatID int64, args []string) {
	var (
		list []objects.Object
		err  error
	)
	if len(args) >= 1 {
		regionID, perr := strconv.ParseInt(args[0], 10, 64)
		if perr != nil {
			b.send(tgbotapi.NewMessage(chatID, "Использование: /objects [номер региона]"))
			return
		}
		list, err = b.objects.ListByRegion(ctx, regionID)
	} else {
		list, err = b.objects.ListByKind(ctx, objects.KindInstallation)
	}
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	if len(list) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "Объектов не найдено."))
		return
	}
	var sb strings.Builder
	sb.WriteString("Объекты:\n")
	for _, o := range list {
		sb.WriteString(fmt.Sprintf("%d. %s (%d адр.)\n", o.ID, o.Name, len(o.Addresses)))
	}
	b.send(tgbotapi.NewMessage(chatID, sb.String()))
}

func (b *Bot) handleBalance(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /balance <номер объекта>"))
		return
	}
	objectID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /balance <номер объекта>"))
		return
	}
	rep, err := b.ledger.CheckBalance(ctx, objectID)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, renderBalance(rep)))
}

func (b *Bot) handleProgress(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /progress <номер материала>"))
		return
	}
	materialID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /progress <номер материала>"))
		return
	}
	mat, err := b.mats.Material(ctx, materialID)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	if mat == nil {
		b.send(tgbotapi.NewMessage(chatID, "Материал не найден."))
		return
	}
	lines, err := b.ledger.MontageReport(ctx, materialID)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, renderMontage(mat, lines)))
}

func (b *Bot) handleProblems(ctx context.Context, chatID int64, args []string) {
	objectID, ok := parseIDArg(args, 0)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /problems <номер объекта>"))
		return
	}
	list, err := b.objects.OpenProblems(ctx, objectID)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, renderProblems(list)))
}

func (b *Bot) handleResolveProblem(ctx context.Context, chatID int64, args []string) {
	id, ok := parseIDArg(args, 0)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /resolve_problem <номер проблемы>"))
		return
	}
	found, err := b.objects.ResolveProblem(ctx, id)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	if !found {
		b.send(tgbotapi.NewMessage(chatID, "Проблема не найдена."))
		return
	}
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Проблема №%d закрыта.", id)))
}

func (b *Bot) handleMaintenance(ctx context.Context, chatID int64, args []string) {
	objectID, ok := parseIDArg(args, 0)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /maintenance <номер объекта>"))
		return
	}
	list, err := b.objects.PendingMaintenance(ctx, objectID)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, renderMaintenance(list)))
}

func (b *Bot) handleDocuments(ctx context.Context, chatID int64, args []string) {
	objectID, ok := parseIDArg(args, 0)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /docs <номер объекта>"))
		return
	}
	list, err := b.objects.Documents(ctx, objectID)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	if len(list) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "Документов по объекту нет."))
		return
	}
	// каждый документ пересылаем как файл с подписью
	for _, d := range list {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(d.FileID))
		doc.Caption = d.Name
		b.send(doc)
	}
}

func (b *Bot) handleSetQuantity(ctx context.Context, chatID int64, args []string) {
	usage := "Использование: /set_quantity <номер материала> <количество>"
	materialID, ok := parseIDArg(args, 0)
	if !ok || len(args) != 2 {
		b.send(tgbotapi.NewMessage(chatID, usage))
		return
	}
	qty, err := strconv.ParseFloat(strings.ReplaceAll(args[1], ",", "."), 64)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, usage))
		return
	}

	err = b.ledger.SetQuantity(ctx, materialID, qty)
	switch {
	case errors.Is(err, materials.ErrMaterialNotFound):
		b.send(tgbotapi.NewMessage(chatID, "Материал не найден."))
	case errors.Is(err, materials.ErrNegativeQuantity):
		b.send(tgbotapi.NewMessage(chatID, "Количество не может быть отрицательным."))
	case err != nil:
		b.replyErr(chatID, err)
	default:
		b.send(tgbotapi.NewMessage(chatID,
			fmt.Sprintf("Общий объём материала №%d теперь %s. Сверка — /balance.", materialID, fmtQty(qty))))
	}
}

func (b *Bot) handleRoles(ctx context.Context, chatID int64) {
	roles, err := b.access.ListRoles(ctx)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, renderRoles(roles)))
}

func (b *Bot) handleDeleteObject(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /del_object <номер объекта>"))
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /del_object <номер объекта>"))
		return
	}
	o, err := b.objects.GetByID(ctx, id)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	if o == nil {
		b.send(tgbotapi.NewMessage(chatID, "Объект не найден."))
		return
	}
	if err := b.objects.Delete(ctx, id); err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Объект «%s» удалён вместе с материалами, участками и документами.", o.Name)))
}

func (b *Bot) handleAssignRole(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) < 1 {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /assign_role <id пользователя> [роль]"))
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /assign_role <id пользователя> [роль]"))
		return
	}

	if len(args) == 1 {
		// без роли — показываем клавиатуру выбора
		m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Выберите роль для пользователя %d:", targetID))
		m.ReplyMarkup = roleKeyboard(targetID)
		b.send(m)
		return
	}

	role := access.ParseRole(args[1])
	if role == access.RoleNone {
		b.send(tgbotapi.NewMessage(chatID, "Неизвестная роль. Доступны: admin, service, installation."))
		return
	}
	b.setRole(ctx, chatID, actorID, targetID, role)
}

// setRole выполняет назначение с проверкой: выдать admin может только main_admin.
func (b *Bot) setRole(ctx context.Context, chatID, actorID, targetID int64, role access.Role) {
	if role == access.RoleAdmin || role == access.RoleMainAdmin {
		actorRole, err := b.access.RoleByUser(ctx, actorID)
		if err != nil {
			b.replyErr(chatID, err)
			return
		}
		if actorRole != access.RoleMainAdmin {
			b.send(tgbotapi.NewMessage(chatID, "Выдавать роль админа может только главный админ."))
			return
		}
	}
	if err := b.access.SetRole(ctx, targetID, role); err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.log.Info("role assigned", "actor_id", actorID, "target_id", targetID, "role", role)
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Пользователю %d назначена роль %s.", targetID, role)))
}

func (b *Bot) handleRevokeRole(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /revoke_role <id пользователя>"))
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /revoke_role <id пользователя>"))
		return
	}
	if err := b.access.DeleteRole(ctx, targetID); err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Роль пользователя %d снята.", targetID)))
}

func (b *Bot) handlePermission(ctx context.Context, chatID int64, args []string) {
	usage := "Использование: /permission <роль> <команда> <private|group|any> <on|off>"
	if len(args) != 4 {
		b.send(tgbotapi.NewMessage(chatID, usage))
		return
	}
	role := access.ParseRole(args[0])
	if role == access.RoleNone || role == access.RoleMainAdmin {
		// main_admin не настраивается — он всегда всё может
		b.send(tgbotapi.NewMessage(chatID, "Роль должна быть одной из: admin, service, installation."))
		return
	}
	scope := access.ChatScope(args[2])
	if scope != access.ScopePrivate && scope != access.ScopeGroup && scope != access.ScopeAny {
		b.send(tgbotapi.NewMessage(chatID, usage))
		return
	}
	var enabled bool
	switch args[3] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		b.send(tgbotapi.NewMessage(chatID, usage))
		return
	}

	err := b.access.SetEntry(ctx, access.PermissionEntry{
		Role: role, Command: args[1], Scope: scope, Enabled: enabled,
	})
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Команда %s для роли %s (%s): %s.", args[1], role, scope, args[3])))
}

/*** SCENARIO FINALIZERS ***/

func (b *Bot) finalize(ctx context.Context, userID, chatID int64, res scenario.Result) {
	switch res.Scenario {
	case "create_region":
		short, _ := dialog.GetString(res.Data, "short_name")
		full, _ := dialog.GetString(res.Data, "full_name")
		reg, err := b.regions.Create(ctx, short, full)
		if err != nil {
			b.replyErr(chatID, err)
			return
		}
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Регион «%s» создан (№%d).", reg.ShortName, reg.ID)))

	case "create_object":
		b.finalizeObject(ctx, chatID, res.Data)

	case "add_material":
		b.finalizeMaterial(ctx, chatID, res.Data)

	case "add_section":
		b.finalizeSection(ctx, chatID, res.Data)

	case "allocate":
		b.finalizeAllocate(ctx, chatID, res.Data)

	case "install":
		b.finalizeInstall(ctx, chatID, res.Data)

	case "add_problem":
		objectID, _ := dialog.GetFloat(res.Data, "object_id")
		desc, _ := dialog.GetString(res.Data, "description")
		if _, err := b.objects.CreateProblem(ctx, int64(objectID), desc); err != nil {
			b.replyErr(chatID, err)
			return
		}
		b.send(tgbotapi.NewMessage(chatID, "Проблема записана."))

	case "add_maintenance":
		objectID, _ := dialog.GetFloat(res.Data, "object_id")
		title, _ := dialog.GetString(res.Data, "title")
		dueStr, _ := dialog.GetString(res.Data, "due_date")
		due, err := time.Parse(dateLayout, dueStr)
		if err != nil {
			b.replyErr(chatID, err)
			return
		}
		if _, err := b.objects.CreateMaintenance(ctx, int64(objectID), title, due); err != nil {
			b.replyErr(chatID, err)
			return
		}
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("ТО «%s» запланировано на %s.", title, dueStr)))

	case "add_project":
		objectID, _ := dialog.GetFloat(res.Data, "object_id")
		name, _ := dialog.GetString(res.Data, "name")
		deadlineStr, _ := dialog.GetString(res.Data, "deadline")
		deadline, err := time.Parse(dateLayout, deadlineStr)
		if err != nil {
			b.replyErr(chatID, err)
			return
		}
		if _, err := b.objects.CreateProject(ctx, int64(objectID), name, deadline); err != nil {
			b.replyErr(chatID, err)
			return
		}
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Проект «%s» создан.", name)))

	case "add_document":
		objectID, _ := dialog.GetFloat(res.Data, "object_id")
		name, _ := dialog.GetString(res.Data, "name")
		fileID, _ := dialog.GetString(res.Data, "file_id")
		if _, err := b.objects.CreateDocument(ctx, int64(objectID), name, fileID); err != nil {
			b.replyErr(chatID, err)
			return
		}
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Документ «%s» сохранён.", name)))

	case "import_plan":
		b.finalizeImportPlan(ctx, chatID, res.Data)

	default:
		b.log.Error("no finalizer for scenario", "scenario", res.Scenario)
		b.send(tgbotapi.NewMessage(chatID, "Что-то пошло не так. Попробуйте ещё раз."))
	}
}

func (b *Bot) finalizeObject(ctx context.Context, chatID int64, data dialog.Data) {
	regionRaw, _ := dialog.GetFloat(data, "region_id")
	name, _ := dialog.GetString(data, "name")
	addresses := dialog.GetStrings(data, "addresses")

	kind := objects.KindInstallation
	var regionID *int64
	if regionRaw > 0 {
		id := int64(regionRaw)
		reg, err := b.regions.GetByID(ctx, id)
		if err != nil {
			b.replyErr(chatID, err)
			return
		}
		if reg == nil {
			b.send(tgbotapi.NewMessage(chatID, "Такого региона нет. Сценарий отменён."))
			return
		}
		kind = objects.KindService
		regionID = &id
	}

	o, err := b.objects.Create(ctx, kind, regionID, name, addresses)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Объект «%s» создан (№%d).", o.Name, o.ID)))
}

func (b *Bot) finalizeMaterial(ctx context.Context, chatID int64, data dialog.Data) {
	objectID, _ := dialog.GetFloat(data, "object_id")
	name, _ := dialog.GetString(data, "name")
	unit, _ := dialog.GetString(data, "unit")
	qty, _ := dialog.GetFloat(data, "quantity")

	o, err := b.objects.GetByID(ctx, int64(objectID))
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	if o == nil {
		b.send(tgbotapi.NewMessage(chatID, "Такого объекта нет. Сценарий отменён."))
		return
	}
	m, err := b.mats.Create(ctx, int64(objectID), name, unit, qty)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Материал «%s» добавлен (№%d): %s %s.", m.Name, m.ID, fmtQty(m.Quantity), m.Unit)))
}

func (b *Bot) finalizeSection(ctx context.Context, chatID int64, data dialog.Data) {
	objectID, _ := dialog.GetFloat(data, "object_id")
	name, _ := dialog.GetString(data, "name")

	o, err := b.objects.GetByID(ctx, int64(objectID))
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	if o == nil {
		b.send(tgbotapi.NewMessage(chatID, "Такого объекта нет. Сценарий отменён."))
		return
	}
	s, err := b.mats.CreateSection(ctx, int64(objectID), name)
	if err != nil {
		b.replyErr(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Участок «%s» добавлен (№%d).", s.Name, s.ID)))
}

func (b *Bot) finalizeAllocate(ctx context.Context, chatID int64, data dialog.Data) {
	materialID, _ := dialog.GetFloat(data, "material_id")
	sectionID, _ := dialog.GetFloat(data, "section_id")
	qty, _ := dialog.GetFloat(data, "quantity")

	err := b.ledger.Allocate(ctx, int64(materialID), int64(sectionID), qty)
	var ins *materials.InsufficientError
	switch {
	case errors.As(err, &ins):
		metrics.AllocationRejected.Inc()
		// числа в сообщении — часть контракта с оператором
		b.send(tgbotapi.NewMessage(chatID, ins.Error()))
	case errors.Is(err, materials.ErrMaterialNotFound),
		errors.Is(err, materials.ErrSectionNotFound):
		b.send(tgbotapi.NewMessage(chatID, err.Error()))
	case err != nil:
		b.replyErr(chatID, err)
	default:
		b.send(tgbotapi.NewMessage(chatID, "Распределение сохранено."))
	}
}

func (b *Bot) finalizeInstall(ctx context.Context, chatID int64, data dialog.Data) {
	materialID, _ := dialog.GetFloat(data, "material_id")
	sectionID, _ := dialog.GetFloat(data, "section_id")
	qty, _ := dialog.GetFloat(data, "quantity")

	err := b.ledger.TrackInstalled(ctx, int64(materialID), int64(sectionID), qty)
	var over *materials.OverInstallError
	switch {
	case errors.Is(err, materials.ErrNotAllocated):
		b.send(tgbotapi.NewMessage(chatID, "Материал не распределён на этот участок. Сначала /allocate."))
	case errors.As(err, &over):
		b.send(tgbotapi.NewMessage(chatID, over.Error()))
	case err != nil:
		b.replyErr(chatID, err)
	default:
		b.send(tgbotapi.NewMessage(chatID, "Монтаж записан."))
	}
}

func (b *Bot) finalizeImportPlan(ctx context.Context, chatID int64, data dialog.Data) {
	fileID, _ := dialog.GetString(data, "file_id")
	raw, err := b.downloadTelegramFile(fileID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Не удалось скачать файл. Пришлите .xlsx ещё раз через /import_plan."))
		return
	}
	rows, err := materials.ParsePlan(raw)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Ошибка в файле: "+err.Error()))
		return
	}
	applied, failures := materials.ApplyPlan(ctx, b.ledger, rows)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Импорт завершён: применено строк — %d.\n", applied))
	if len(failures) > 0 {
		metrics.AllocationRejected.Add(float64(len(failures)))
		sb.WriteString("Не применены:\n")
		for _, f := range failures {
			sb.WriteString("— " + f + "\n")
		}
	}
	b.send(tgbotapi.NewMessage(chatID, sb.String()))
}

/*** CALLBACKS ***/

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	parts := strings.Split(cb.Data, ":")

	switch {
	case cb.Data == "nav:cancel":
		_ = b.answerCallback(cb, "", false)
		b.handleCancel(ctx, userID, chatID)

	case len(parts) == 4 && parts[0] == "role" && parts[1] == "set":
		d, err := b.resolver.Resolve(ctx, userID, "assign_role", scopeOf(cb.Message.Chat))
		if err != nil {
			b.log.Error("resolve failed", "err", err)
			return
		}
		if !d.Allowed {
			metrics.PermissionDenied.WithLabelValues("assign_role").Inc()
			_ = b.answerCallback(cb, "Доступ запрещён", true)
			return
		}
		targetID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return
		}
		role := access.ParseRole(parts[3])
		if role == access.RoleNone {
			return
		}
		_ = b.answerCallback(cb, "", false)
		b.setRole(ctx, chatID, userID, targetID, role)

	default:
		_ = b.answerCallback(cb, "", false)
	}
}

func helpText() string {
	return "Команды:\n" +
		"/start — начало работы\n" +
		"/help — помощь\n" +
		"/cancel — прервать текущий сценарий\n" +
		"/regions — список регионов\n" +
		"/objects [регион] — список объектов\n" +
		"/balance <объект> — сверка материалов по участкам\n" +
		"/progress <материал> — ход монтажа\n" +
		"/problems <объект>, /resolve_problem <номер> — проблемы\n" +
		"/maintenance <объект> — предстоящие ТО\n" +
		"/docs <объект> — документы объекта\n" +
		"/add_problem, /add_maintenance, /add_document, /install — учёт по объекту\n" +
		"Админ: /new_region, /new_object, /del_object, /add_material, /add_section,\n" +
		"/set_quantity, /allocate, /import_plan, /add_project,\n" +
		"/assign_role, /revoke_role, /roles, /permission"
}
