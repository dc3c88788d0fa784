package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cloudtodo/core/internal/domain/dates"
	"github.com/cloudtodo/core/internal/domain/entities"
)

const helpText = `🤖 *CloudTodo Bot Guide*

📝 *Tasks*
/add <content> - add a task (e.g. /add Write report due friday 15:00)
/list [filter] - show your tasks
/done <number> - mark a task done or undone
/del <number> - delete a task
/edit <number> <content> - change the task text
/prio <number> <1-5> - set priority (1 highest, 5 lowest)
/due <number> <date> - set the due date
/tag <number> <tags> - replace the task's tags

🔍 *More*
/search <keyword> - search content and tags
/sort [priority|due|created] - reorder stored tasks
/clear <all|completed|overdue> - remove tasks in bulk
/remind <number> <N minutes|hours|days before> [message] - set a reminder
/stats - show statistics
/export - download your tasks as JSON

⚙️ *Settings*
/settings - show current settings
/settings timezone <Area/City>
/settings reminderTime <HH:MM>
/settings language <code>
/settings defaultPriority <1-5>
/settings defaultTags <tags>
/settings notificationEnabled <true|false>

💡 *Tips*
• Put a due date right in the task with due, by, until or 截止
• Dates like today, tomorrow, day after tomorrow, next week, friday, March 1, 2024-03-01, 明天, 周五, 3月1日 all work
• Separate tags with spaces or commas
• Use /list again whenever numbers may have changed`

const filterHint = `
💡 Filters:
/list today - due today
/list week - due within 7 days
/list overdue - past due
/list completed - done
/list pending - not done
/list tag:<name> - by tag`

const invalidNumberText = "❌ Invalid task number, use /list to see the current numbering"

var filterTitles = map[string]string{
	"today":     "Today",
	"week":      "This week",
	"overdue":   "Overdue",
	"completed": "Completed",
	"pending":   "Pending",
}

var weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// relativeDate describes t relative to now in calendar days.
func relativeDate(t, now time.Time) string {
	t = t.In(now.Location())
	days := int(math.Round(dates.StartOfDay(t).Sub(dates.StartOfDay(now)).Hours() / 24))

	var day string
	switch {
	case days == -1:
		day = "yesterday"
	case days == 0:
		day = "today"
	case days == 1:
		day = "tomorrow"
	case days == 2:
		day = "day after tomorrow"
	case days > 2 && days < 7:
		day = "this " + weekdayNames[t.Weekday()]
	case days >= 7 && days < 14:
		day = "next " + weekdayNames[t.Weekday()]
	default:
		return formatDate(t)
	}

	if t.Hour() == 23 && t.Minute() == 59 {
		return day
	}
	return day + " " + t.Format("15:04")
}

func statusIcon(t *entities.Task, now time.Time) string {
	switch {
	case t.Completed:
		return "✅"
	case t.IsOverdue(now):
		return "⏰"
	default:
		return "⬜"
	}
}

func formatTask(n int, t *entities.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s %s %s", n, statusIcon(t, now), t.Content, entities.PriorityLabel(t.Priority))
	if t.DueDate != nil {
		fmt.Fprintf(&b, "\n   📅 %s", relativeDate(*t.DueDate, now))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "\n   🏷️ %s", strings.Join(t.Tags, ", "))
	}
	if t.Reminder != nil && !t.Reminder.Sent {
		fmt.Fprintf(&b, "\n   🔔 %s", formatDate(t.Reminder.Time.In(now.Location())))
	}
	b.WriteString("\n")
	return b.String()
}

func listTitle(filter string) string {
	title := "📋 Tasks"
	if filter == "" {
		return title
	}
	if name, ok := filterTitles[filter]; ok {
		return title + " - " + name
	}
	return title + " - " + filter
}

func formatSettings(s entities.Settings) string {
	tags := "none"
	if len(s.DefaultTags) > 0 {
		tags = strings.Join(s.DefaultTags, ", ")
	}
	return fmt.Sprintf("⚙️ *Settings*\n\n"+
		"timezone: %s\n"+
		"reminderTime: %s\n"+
		"language: %s\n"+
		"defaultPriority: %d %s\n"+
		"defaultTags: %s\n"+
		"notificationEnabled: %t\n\n"+
		"Change one with /settings <key> <value>",
		s.Timezone, s.ReminderTime, s.Language,
		s.DefaultPriority, entities.PriorityLabel(s.DefaultPriority),
		tags, s.NotificationEnabled)
}
