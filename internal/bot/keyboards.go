package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/brk3/habitbot/pkg/habit"
)

var frequencyKeyboard = &Keyboard{Reply: [][]string{
	{labelDaily, labelWeekly},
	{"/cancel"},
}}

var cancelKeyboard = &Keyboard{Reply: [][]string{{"/cancel"}}}

func removeKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

func (b *Bot) doneOn(ctx context.Context, habitID int64, day time.Time) (bool, error) {
	recs, err := b.store.ListCompletions(ctx, habitID, day, day)
	if err != nil {
		return false, fmt.Errorf("list completions for habit %d: %w", habitID, err)
	}
	for _, r := range recs {
		if r.Done {
			return true, nil
		}
	}
	return false, nil
}

// todayKeyboard lists the habits due today with their mark button and
// edit/delete actions. It returns nil when nothing is due.
func (b *Bot) todayKeyboard(ctx context.Context, u habit.User) (*Keyboard, error) {
	today := b.today()
	due, err := b.store.ListDueHabits(ctx, u.ID, today)
	if err != nil {
		return nil, fmt.Errorf("list due habits: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	kb := &Keyboard{}
	for _, h := range due {
		done, err := b.doneOn(ctx, h.ID, today)
		if err != nil {
			return nil, err
		}
		status := markPending
		if done {
			status = markDone
		}
		kb.Inline = append(kb.Inline,
			[]Button{
				{Text: h.Name, Data: fmt.Sprintf("habit:%d", h.ID)},
				{Text: status, Data: fmt.Sprintf("mark:%d", h.ID)},
			},
			[]Button{
				{Text: labelEdit, Data: fmt.Sprintf("habit:edit:%d", h.ID)},
				{Text: labelDelete, Data: fmt.Sprintf("habit:del:%d", h.ID)},
			},
		)
	}
	kb.Inline = append(kb.Inline, []Button{{Text: labelCancel, Data: "mark:cancel"}})
	return kb, nil
}

func confirmDeleteKeyboard(id int64) *Keyboard {
	return &Keyboard{Inline: [][]Button{{
		{Text: labelYes, Data: fmt.Sprintf("habit:del:yes:%d", id)},
		{Text: labelNo, Data: "habit:del:no"},
	}}}
}
