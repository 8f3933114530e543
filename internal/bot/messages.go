package bot

import "math/rand/v2"

const (
	msgStart = "Привет! Я бот-трекер привычек.\n" +
		"Сохранил профиль в базе.\n" +
		"Добавить новую привычку — команда /add\n" +
		"Отметить выполнение — /done\n" +
		"Посмотреть на сегодня — /today"

	msgHelp = "Команды:\n" +
		"/start — регистрация\n" +
		"/add — добавить привычку\n" +
		"/done — отметить выполнение, изменить или удалить привычку\n" +
		"/cancel — отменить текущее добавление\n" +
		"/today /week /month — статистика\n"

	msgApology        = "Что-то пошло не так. Попробуй ещё раз чуть позже."
	msgUnknownCommand = "Неизвестная команда. Список команд — /help."
	msgUnknownInput   = "Не понял. Список команд — /help."

	msgNothingToCancel = "Нечего отменять."
	msgCancelled       = "Операция отменена."

	msgAskName      = "Как называется привычка? Пример: «Читать 20 страниц»\n\nНапиши название или /cancel, чтобы выйти."
	msgNameTooShort = "Слишком короткое название. Введите более понятное имя (мин. 2 символа) или /cancel."
	msgNameTooLong  = "Название слишком длинное. Уменьши до 200 символов."
	msgAskFrequency = "Выбери частоту выполнения:"
	msgPickButton   = "Пожалуйста, выбери одну из кнопок: 'Ежедневно' или 'Еженедельно', либо /cancel."
	msgAskReminder  = "Укажи время для напоминания в формате HH:MM (например, 08:30), или «-», чтобы обойтись без напоминания."
	msgBadReminder  = "Неверный формат. Используй HH:MM, например 08:30, или «-»."
	msgAskSchedule  = "Отлично. Введи дни недели, в которые нужно напоминать.\n" +
		"Примеры: `пн, ср, пт` или `0,2,4` (0=понедельник, 6=воскресенье).\n" +
		"Также можно использовать 7 для воскресенья.\n\n" +
		"Введи через запятую или пробел. Или /cancel."
	msgBadDays      = "Не понял дни: %s\nПопробуй ещё раз (пример: 'пн, ср, пт' или '0,2,4') или /cancel."
	msgAddedDaily   = "Готово — привычка '%s' добавлена ✅"
	msgAddedWeekly  = "Готово — привычка '%s' добавлена (еженедельно: %s) ✅"
	msgReminderNote = "\n⏰ Напоминание в %s"

	msgNoHabitsToday = "На сегодня у тебя нет привычек. Добавь новую привычку командой /add."
	msgPickHabit     = "Выбери привычку, чтобы отметить её выполненной:"
	msgTodayEmpty    = "На сегодня у тебя нет привычек — добавь с помощью /add."
	msgNoHabits      = "У тебя ещё нет привычек. Добавь через /add."
	msgTodayHeader   = "📅 Статус на сегодня — %s\n"
	msgWeekHeader    = "📊 Прогресс за последние 7 дней (%s — %s):\n"
	msgMonthHeader   = "📅 Прогресс за месяц (%s — %s):\n"

	msgCancel          = "Отмена."
	msgBadData         = "Неверные данные."
	msgUnknownAction   = "Неизвестное действие."
	msgHabitNotFound   = "Привычка не найдена."
	msgCannotMark      = "Нельзя отмечать эту привычку."
	msgCannotView      = "Нельзя просматривать эту привычку."
	msgCannotEdit      = "Нельзя редактировать эту привычку."
	msgCannotDelete    = "Нельзя удалить эту привычку."
	msgAlreadyMarked   = "Эта привычка уже отмечена сегодня ✅"
	msgMarked          = "Готово — ты отметил(а) привычку: «%s»\n\n%s"
	msgConfirmDelete   = "Ты уверен, что хочешь удалить привычку «%s»?"
	msgDeleted         = "Привычка «%s» удалена ✅"
	msgDeleteCancelled = "Удаление отменено."
	msgHabitDetails    = "«%s»\nЧастота: %s\nНапоминание: %s\nСоздана: %s"

	msgEditName        = "Текущее название привычки: %s\n\nВведи новое название или напиши «-», чтобы оставить без изменений."
	msgEditFrequency   = "Укажи частоту (daily/weekly) или «-» чтобы не менять."
	msgEditBadFreq     = "Некорректная частота. Введи daily или weekly, либо «-»."
	msgEditSchedule    = "Укажи расписание (например [0,2,4] или пн, ср, пт) или «-», чтобы оставить как есть. «[]» убирает расписание."
	msgEditBadSchedule = "Некорректный формат. Введи JSON массив (например [0,2,4]), дни недели (пн, ср, пт) или «-»."
	msgEditReminder    = "Укажи время напоминания (HH:MM), «нет» чтобы убрать его, или «-», чтобы оставить как есть."
	msgEditBadReminder = "Некорректный формат времени. Используй HH:MM или «-»."
	msgEdited          = "✅ Привычка успешно обновлена!"
)

const (
	labelDaily   = "Ежедневно"
	labelWeekly  = "Еженедельно"
	labelEdit    = "✏️ Редактировать"
	labelDelete  = "🗑 Удалить"
	labelCancel  = "Отмена"
	labelYes     = "Да, удалить"
	labelNo      = "Нет, отмена"
	markDone     = "✅"
	markPending  = "⬜"
	markMissed   = "❌"
	markDayDone  = "✅"
	markDayEmpty = "·"
)

var motivationalPhrases = []string{
	"Отлично! Так держать!",
	"Молодец — маленький шаг к большой цели!",
	"Прекрасно! Продолжай в том же духе!",
	"Круто! Ты на пути к привычке!",
	"Вот это продуктивность — горжусь тобой!",
	"Ещё один день — ещё один прогресс!",
	"Удивительно! Ты справился(ась)!",
}

func randomMotivation() string {
	return motivationalPhrases[rand.IntN(len(motivationalPhrases))]
}
