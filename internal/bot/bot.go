package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/config"
	"todo-calendar/internal/logging"
	"todo-calendar/internal/metrics"
	"todo-calendar/internal/model"
	"todo-calendar/internal/repository"
	"todo-calendar/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageCategory
	stageDate
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbConfirmPrefix  = "confirm:"
	cbCancelPrefix   = "cancel:"
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
	// dayFixed is set when the task was started from a day view.
	dayFixed bool
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// Services groups what the bot talks to.
type Services struct {
	Users      *repository.UserRepository
	Categories *service.CategoryService
	Tasks      *service.TaskService
	Calendar   *service.CalendarService
	Reminders  *service.ReminderService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api         *tgbotapi.BotAPI
	userRepo    *repository.UserRepository
	categorySvc *service.CategoryService
	taskSvc     *service.TaskService
	calendarSvc *service.CalendarService
	reminderSvc *service.ReminderService
	config      *config.Config
	log         *logging.Logger
	metrics     *metrics.Metrics

	scheduler   *service.SchedulerService
	reportEntry cron.EntryID
	reportJob   func()

	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, svc Services, cfg *config.Config, log *logging.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if log == nil {
		log = logging.Default()
	}
	log = log.WithComponent(logging.ComponentBot)
	log.Info("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      svc.Users,
		categorySvc:   svc.Categories,
		taskSvc:       svc.Tasks,
		calendarSvc:   svc.Calendar,
		reminderSvc:   svc.Reminders,
		config:        cfg,
		log:           log,
		metrics:       m,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// ScheduleReports registers the periodic report job and, when REPORT_AT is
// configured, a daily one. /interval reschedules the periodic job later.
func (b *Bot) ScheduleReports(ctx context.Context, scheduler *service.SchedulerService) error {
	job := func() {
		if err := b.SendDailyReports(ctx); err != nil {
			b.log.Error("send daily reports", logging.FieldError, err)
		}
	}

	id, err := scheduler.ScheduleInterval(b.config.ReportInterval, job)
	if err != nil {
		return fmt.Errorf("schedule report interval: %w", err)
	}
	if b.config.ReportAt != "" {
		if _, err := scheduler.ScheduleDaily(b.config.ReportAt, job); err != nil {
			return fmt.Errorf("schedule daily report: %w", err)
		}
	}

	b.mu.Lock()
	b.scheduler = scheduler
	b.reportEntry = id
	b.reportJob = job
	b.mu.Unlock()

	b.log.Info("reports scheduled", "interval", b.config.ReportInterval.String(), "daily_at", b.config.ReportAt)
	return nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error("handle callback", logging.FieldCallback, update.CallbackQuery.Data, logging.FieldError, err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error("handle message", logging.FieldError, err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Диалог создания задачи отменён. Я здесь, чтобы начать заново.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info("command", logging.FieldTelegramID, msg.From.ID, logging.FieldCommand, msg.Command(), "args", msg.CommandArguments())
		b.metrics.Command(msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		b.log.Debug("conversation step", logging.FieldTelegramID, msg.From.ID, "stage", int(state.stage))
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg.From, msg.Chat.ID, nil)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "calendar":
		return b.handleCalendar(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "nodate":
		return b.handleUndated(ctx, msg.From, msg.Chat.ID)
	case "interval":
		return b.handleInterval(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Диалог создания задачи отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(user.DisplayName())
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я планировщик задач с календарём.</b>\n\nКоманды:\n"+
			"• /newtask — добавить новую задачу\n"+
			"• /tasks — показать открытые задачи\n"+
			"• /calendar — календарь на месяц\n"+
			"• /today — задачи на сегодня\n"+
			"• /nodate — задачи без даты\n"+
			"• /complete &lt;id&gt; — отметить задачу выполненной\n"+
			"• /categories — список категорий\n"+
			"• /interval &lt;часы&gt; — интервал отчётов\n"+
			"• /report — отчёт прямо сейчас\n"+
			"• /help — подсказки\n"+
			"• /cancel — отменить текущий ввод",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" +
		"• /newtask — добавить задачу пошагово: название, категория, дата\n" +
		"• /tasks — открытые задачи, завершить или удалить по кнопке\n" +
		"• /calendar [ГГГГ-ММ] — календарь, например /calendar 2025-03\n" +
		"• /today — задачи на сегодня с переключением статуса\n" +
		"• /nodate — задачи без даты\n" +
		"• /complete &lt;id&gt; — отметить задачу по номеру (например, /complete 3)\n" +
		"• /delete &lt;id&gt; — удалить задачу полностью\n" +
		"• /categories — посмотреть доступные категории\n" +
		"• /interval &lt;часы&gt; — как часто присылать отчёт (по умолчанию 5 часов)\n" +
		"• /report — отправить отчёт прямо сейчас\n" +
		"• /cancel — отменить текущий ввод"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, from *tgbotapi.User, chatID int64, day *calendar.Date) error {
	if _, err := b.ensureUser(ctx, from); err != nil {
		return err
	}
	state := &conversationState{stage: stageTitle}
	prompt := "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?"
	if day != nil {
		state.input.Date = day.String()
		state.dayFixed = true
		prompt = fmt.Sprintf("🆕 Новая задача на <b>%s</b>.\n<b>Шаг 1:</b> как её назвать?", dayTitle(*day))
	}
	b.log.Info("start new task conversation", logging.FieldTelegramID, from.ID, logging.FieldDay, state.input.Date)
	b.setConversation(from.ID, state)
	return b.sendWithReplyMarkup(chatID, prompt, cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым. Как назвать задачу?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери категорию или отправь свою (можно «Пропустить»).", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		if state.dayFixed {
			b.clearConversation(msg.From.ID)
			return b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 На какой день? Формат <code>2025-11-30</code>, «Сегодня», «Завтра» или «Пропустить».", dateKeyboard())
	case stageDate:
		day, ok := b.parseDayInput(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или «Пропустить».", dateKeyboard())
		}
		state.input.Date = day
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

// parseDayInput returns the "YYYY-MM-DD" day typed by the user, or "" when
// the step was skipped.
func (b *Bot) parseDayInput(text string) (string, bool) {
	switch {
	case isSkipInput(text):
		return "", true
	case strings.EqualFold(text, btnToday):
		return b.calendarSvc.Today().String(), true
	case strings.EqualFold(text, btnTomorrow):
		return b.calendarSvc.Today().AddDays(1).String(), true
	}
	day, err := calendar.ParseDate(text)
	if err != nil {
		return "", false
	}
	return day.String(), true
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
	}
	b.metrics.TaskCreated()

	b.log.Info("task created", logging.FieldTaskID, task.ID, logging.FieldUserID, user.ID, logging.FieldDay, input.Date)

	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if input.Category != "" {
		summary.WriteString(fmt.Sprintf("• <b>Категория:</b> %s\n", escape(normalizeTitle(input.Category))))
	}
	day, dated := calendar.Normalize(dueDate(*task))
	if dated {
		summary.WriteString(fmt.Sprintf("• <b>Дата:</b> %s\n", dayTitle(day)))
	} else {
		summary.WriteString("• <b>Дата:</b> без даты\n")
	}

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	if dated {
		return b.sendDay(ctx, chatID, user, day)
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	b.log.Info("list tasks", logging.FieldUserID, user.ID)
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /complete 12")
	}

	taskID64, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "ID задачи должен быть числом.")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CompleteTask(ctx, user, uint(taskID64), time.Now())
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(msg.Chat.ID, "Задача не найдена.")
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.categorySvc.List(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить категории: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Категории пока пусты. Добавь их при создании задачи.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", categoryLabel(cat.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleCalendar(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	w := b.calendarSvc.CurrentWindow()
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		parsed, err := calendar.ParseWindow(args)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Месяц указывается в формате <code>2025-03</code>.")
		}
		w = parsed
	}
	text, markup, err := b.renderMonth(ctx, user, w, nil)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось построить календарь: %s", escape(err.Error())))
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, text, markup)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendDay(ctx, msg.Chat.ID, user, b.calendarSvc.Today())
}

func (b *Bot) handleUndated(ctx context.Context, from *tgbotapi.User, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	tasks, err := b.calendarSvc.Undated(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	return b.sendText(chatID, undatedText(tasks))
}

func (b *Bot) renderMonth(ctx context.Context, user *model.User, w calendar.Window, selected calendar.RawDate) (string, tgbotapi.InlineKeyboardMarkup, error) {
	view, err := b.calendarSvc.Month(ctx, user, w, selected)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	return calendarText(view), calendarKeyboard(view.Grid), nil
}

func (b *Bot) renderDay(ctx context.Context, user *model.User, day calendar.Date) (string, tgbotapi.InlineKeyboardMarkup, error) {
	view, err := b.calendarSvc.Day(ctx, user, day)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	return dayText(view), dayKeyboard(view), nil
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, user *model.User, day calendar.Date) error {
	text, markup, err := b.renderDay(ctx, user, day)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
		}
		return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		var prompt string
		if req.action == actionDelete {
			prompt = "Подтверди или отмени удаление задачи."
		} else {
			prompt = "Подтверди или отмени выполнение задачи."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

// SendDailyReports sends a summary to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.reminderSvc.DailySummary(ctx, user, now)
		if err != nil {
			b.log.Error("build summary", logging.FieldTelegramID, user.TelegramID, logging.FieldError, err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.log.Error("send summary", logging.FieldTelegramID, user.TelegramID, logging.FieldError, err)
			continue
		}
		b.metrics.ReportSent()
		sent++
	}
	b.log.Info("daily reports sent", logging.FieldCount, sent)
	return nil
}

func (b *Bot) handleInterval(msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.mu.Lock()
		current := fmt.Sprintf("%d ч.", int(b.config.ReportInterval.Hours()))
		b.mu.Unlock()
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Текущий интервал отчётов: %s Укажи число часов, например: /interval 4", current))
	}
	hours, err := strconv.Atoi(args)
	if err != nil || hours <= 0 {
		return b.sendText(msg.Chat.ID, "Интервал должен быть положительным числом часов, например /interval 6")
	}
	interval := time.Duration(hours) * time.Hour

	if err := b.setReportInterval(interval); err != nil {
		b.log.Error("reschedule reports", logging.FieldError, err)
		return b.sendText(msg.Chat.ID, "Не удалось изменить интервал, попробуй позже.")
	}
	b.log.Info("report interval changed", logging.FieldTelegramID, msg.From.ID, "interval", interval.String())
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Интервал уведомлений обновлён: каждые %d ч.", hours))
}

func (b *Bot) setReportInterval(interval time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scheduler != nil {
		next, err := b.scheduler.Reschedule(b.reportEntry, interval, b.reportJob)
		if err != nil {
			return err
		}
		b.reportEntry = next
	}
	b.config.ReportInterval = interval
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// editMessage replaces a message in place, used for calendar navigation.
func (b *Bot) editMessage(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return err
	}
	return nil
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Главное меню")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Warn("callback ack", logging.FieldError, err)
	}
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListPending(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "У тебя нет открытых задач. Добавь новую через /newtask.")
	}

	categories, _ := b.categorySvc.List(ctx, user)
	catNames := make(map[uint]string)
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	type categoryGroup struct {
		Name  string
		Tasks []model.Task
	}

	groups := make(map[string]*categoryGroup)
	order := make([]string, 0, len(tasks))

	// tasks arrive ordered by day, undated last
	for _, task := range tasks {
		key, display := normalizedCategory(task.CategoryID, catNames)
		group, ok := groups[key]
		if !ok {
			group = &categoryGroup{Name: display}
			groups[key] = group
			order = append(order, key)
		}
		group.Tasks = append(group.Tasks, task)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == noCategoryKey {
			return false
		}
		if order[j] == noCategoryKey {
			return true
		}
		return strings.Compare(groups[order[i]].Name, groups[order[j]].Name) < 0
	})

	today := b.calendarSvc.Today()
	var builder strings.Builder
	builder.WriteString("📋 <b>Открытые задачи</b>\n")
	builder.WriteString("Нажми на кнопку, чтобы отметить задачу выполненной или удалить её.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, key := range order {
		section := groups[key]
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", section.Name))
		for _, task := range section.Tasks {
			builder.WriteString(formatTask(task, today))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
			))
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	b.metrics.Command(callbackName(data))
	b.log.Debug("callback", logging.FieldTelegramID, cb.From.ID, logging.FieldCallback, data)

	switch {
	case data == cbNoop:
		b.answerCallback(cb.ID, "")
		return nil
	case data == cbToday:
		b.answerCallback(cb.ID, "")
		return b.showMonth(ctx, cb.From, chatID, messageID, b.calendarSvc.CurrentWindow(), b.calendarSvc.Today())
	case strings.HasPrefix(data, cbCalendarPrefix):
		b.answerCallback(cb.ID, "")
		w, err := calendar.ParseWindow(strings.TrimPrefix(data, cbCalendarPrefix))
		if err != nil {
			return nil
		}
		return b.showMonth(ctx, cb.From, chatID, messageID, w, nil)
	case strings.HasPrefix(data, cbDayPrefix):
		b.answerCallback(cb.ID, "")
		day, err := calendar.ParseDate(strings.TrimPrefix(data, cbDayPrefix))
		if err != nil {
			return nil
		}
		return b.showDay(ctx, cb.From, chatID, messageID, day)
	case strings.HasPrefix(data, cbTogglePrefix):
		taskID, day, err := parseToggleData(data)
		if err != nil {
			b.answerCallback(cb.ID, "")
			return nil
		}
		return b.toggleTask(ctx, cb, taskID, day)
	case strings.HasPrefix(data, cbNewOnDayPrefix):
		b.answerCallback(cb.ID, "")
		day, err := calendar.ParseDate(strings.TrimPrefix(data, cbNewOnDayPrefix))
		if err != nil {
			return nil
		}
		return b.startNewTaskConversation(ctx, cb.From, chatID, &day)
	case data == cbUndated:
		b.answerCallback(cb.ID, "")
		return b.handleUndated(ctx, cb.From, chatID)
	case strings.HasPrefix(data, cbCompletePrefix):
		b.answerCallback(cb.ID, "")
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.askCompleteConfirmation(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		b.answerCallback(cb.ID, "")
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbConfirmPrefix):
		b.answerCallback(cb.ID, "")
		taskID, err := parseTaskID(data, cbConfirmPrefix)
		if err != nil {
			return nil
		}
		return b.completeTaskAndRefresh(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbCancelPrefix):
		b.answerCallback(cb.ID, "")
		b.clearConfirmation(cb.From.ID)
		return nil
	default:
		b.answerCallback(cb.ID, "")
		return nil
	}
}

func (b *Bot) showMonth(ctx context.Context, from *tgbotapi.User, chatID int64, messageID int, w calendar.Window, selected calendar.RawDate) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	text, markup, err := b.renderMonth(ctx, user, w, selected)
	if err != nil {
		return err
	}
	return b.editMessage(chatID, messageID, text, markup)
}

func (b *Bot) showDay(ctx context.Context, from *tgbotapi.User, chatID int64, messageID int, day calendar.Date) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	text, markup, err := b.renderDay(ctx, user, day)
	if err != nil {
		return err
	}
	return b.editMessage(chatID, messageID, text, markup)
}

func (b *Bot) toggleTask(ctx context.Context, cb *tgbotapi.CallbackQuery, taskID uint, day calendar.Date) error {
	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		b.answerCallback(cb.ID, "")
		return err
	}
	task, err := b.taskSvc.ToggleTask(ctx, user, taskID, time.Now())
	if err != nil {
		if service.IsNotFound(err) {
			b.answerCallback(cb.ID, "Задача не найдена")
			return b.showDay(ctx, cb.From, cb.Message.Chat.ID, cb.Message.MessageID, day)
		}
		b.answerCallback(cb.ID, "Ошибка")
		return err
	}

	note := "Задача снова открыта"
	if task.IsCompleted {
		note = "Задача выполнена"
	}
	b.answerCallback(cb.ID, note)
	b.log.Info("task toggled", logging.FieldTaskID, task.ID, logging.FieldUserID, user.ID, "completed", task.IsCompleted)
	return b.showDay(ctx, cb.From, cb.Message.Chat.ID, cb.Message.MessageID, day)
}

func (b *Bot) askCompleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "Задача не найдена.")
		}
		return err
	}

	if task.IsCompleted {
		return b.sendText(chatID, "Задача уже выполнена.")
	}

	text := fmt.Sprintf("Отметить задачу «%s» (#%d) как выполненную?", escape(normalizeTitle(task.Title)), task.ID)
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionComplete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "Задача не найдена.")
		}
		return err
	}

	text := fmt.Sprintf("Удалить задачу \"%s\" (#%d)?", escape(normalizeTitle(task.Title)), task.ID)
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "Задача не найдена или уже удалена.")
		}
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	if task.IsCompleted {
		return b.sendText(chatID, "Задача уже была выполнена.")
	}

	task, err = b.taskSvc.CompleteTask(ctx, user, taskID, time.Now())
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "Задача не найдена или уже удалена.")
		}
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	b.log.Info("task completed", logging.FieldTaskID, task.ID, logging.FieldUserID, user.ID)
	if err := b.sendText(chatID, fmt.Sprintf("✅ Задача «%s» выполнена.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}

	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if service.IsNotFound(err) {
			return b.sendText(chatID, "Задача не найдена или уже удалена.")
		}
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	if err := b.taskSvc.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	b.log.Info("task deleted", logging.FieldTaskID, task.ID, logging.FieldUserID, user.ID)
	if err := b.sendText(chatID, fmt.Sprintf("🗑 Задача \"%s\" удалена.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}

	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /delete 12")
	}

	taskID64, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "ID задачи должен быть числом.")
	}

	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, uint(taskID64))
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg.From, msg.Chat.ID, nil)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelCalendar):
		return true, b.handleCalendar(ctx, msg)
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(ctx, msg)
	case strings.ToLower(menuLabelCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}
