package reminder

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warcat/warcat-backend/internal/constants"
	"github.com/warcat/warcat-backend/internal/mailer"
	"github.com/warcat/warcat-backend/internal/repository"
)

// DueFunc decides whether a reminder target is due at the given tick.
type DueFunc func(now, target time.Time) bool

// ExactMatch fires only when the tick and the target fall in the same
// minute. A tick delayed past the target minute misses it entirely.
func ExactMatch(now, target time.Time) bool {
	return now.Truncate(time.Minute).Equal(target.Truncate(time.Minute))
}

// Window fires when the target falls before now+tick. Unlike
// ExactMatch it also picks up targets a delayed tick would have
// skipped, because anything already past due satisfies the check on
// the next scan.
func Window(tick time.Duration) DueFunc {
	return func(now, target time.Time) bool {
		return target.Before(now.Add(tick))
	}
}

// Dispatcher scans meetings and tasks every minute and emails the
// tag-matched audience one hour before each start or target time.
// Reminder delivery is synchronous within the tick so that a send
// failure for one recipient never blocks the rest of the scan.
type Dispatcher struct {
	meetingRepo repository.MeetingRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	mail        mailer.Mailer
	isDue       DueFunc
	loc         *time.Location
	cron        *cron.Cron
}

// NewDispatcher creates a dispatcher using the given due comparator.
func NewDispatcher(meetingRepo repository.MeetingRepository, taskRepo repository.TaskRepository, userRepo repository.UserRepository, mail mailer.Mailer, isDue DueFunc, loc *time.Location) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		meetingRepo: meetingRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		mail:        mail,
		isDue:       isDue,
		loc:         loc,
	}
}

// Start schedules the minutely scan. Call Stop to halt it.
func (d *Dispatcher) Start() error {
	d.cron = cron.New(cron.WithLocation(d.loc))
	_, err := d.cron.AddFunc("* * * * *", func() {
		d.RunTick(time.Now().In(d.loc))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	d.cron.Start()
	return nil
}

// Stop halts the scheduler. Does not wait for an in-flight tick.
func (d *Dispatcher) Stop() {
	if d.cron != nil {
		d.cron.Stop()
	}
}

// RunTick runs one scan over pending meetings and tasks. A panic in a
// scan is contained to the tick so the scheduler keeps running.
func (d *Dispatcher) RunTick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("reminder scan panicked: %v", r)
		}
	}()
	d.scanMeetings(now)
	d.scanTasks(now)
}

func (d *Dispatcher) scanMeetings(now time.Time) {
	meetings, err := d.meetingRepo.ListPendingReminder()
	if err != nil {
		log.Printf("failed to list pending meeting reminders: %v", err)
		return
	}

	for i := range meetings {
		meeting := &meetings[i]
		startsAt, err := meeting.StartsAt(d.loc)
		if err != nil {
			log.Printf("meeting %s has unparseable time %q: %v", meeting.MeetingCode, meeting.SelectTime, err)
			continue
		}
		if !d.isDue(now, startsAt.Add(-constants.ReminderLead)) {
			continue
		}

		subject := fmt.Sprintf("Reminder: meeting %q starts at %s", meeting.MeetingTopic, meeting.SelectTime)
		body := fmt.Sprintf(
			"Dear User,\n\nThis is a reminder that the meeting %q is scheduled for %s at %s.\n",
			meeting.MeetingTopic, meeting.SelectDate.Format("2006-01-02"), meeting.SelectTime,
		)
		d.deliver(meeting.DepartmentIDs(), meeting.Tags, subject, body)

		// Marked regardless of delivery outcome: a partial failure is
		// never retried, matching the one-shot reminder_mail flag.
		if err := d.meetingRepo.MarkReminderSent(meeting.ID); err != nil {
			log.Printf("failed to mark meeting %s reminded: %v", meeting.MeetingCode, err)
		}
	}
}

func (d *Dispatcher) scanTasks(now time.Time) {
	tasks, err := d.taskRepo.ListPendingReminder()
	if err != nil {
		log.Printf("failed to list pending task reminders: %v", err)
		return
	}

	for i := range tasks {
		task := &tasks[i]
		if !d.isDue(now, task.TargetDate.In(d.loc).Add(-constants.ReminderLead)) {
			continue
		}

		subject := fmt.Sprintf("Reminder: task %q is due soon", task.TaskTitle)
		body := fmt.Sprintf(
			"Dear User,\n\nThis is a reminder that the task %q has a target date of %s.\n",
			task.TaskTitle, task.TargetDate.Format("2006-01-02"),
		)
		for _, dep := range task.Departments {
			d.deliver([]uint64{dep.DepartmentID}, dep.Tags, subject, body)
		}

		if err := d.taskRepo.MarkReminderSent(task.ID); err != nil {
			log.Printf("failed to mark task %s reminded: %v", task.TaskID, err)
		}
	}
}

// deliver sends one email per matched user. A failed recipient is
// logged and skipped; the rest still get theirs.
func (d *Dispatcher) deliver(departmentIDs []uint64, tags []string, subject, body string) {
	users, err := d.userRepo.FindAudience(departmentIDs, tags)
	if err != nil {
		log.Printf("failed to resolve reminder audience: %v", err)
		return
	}
	for _, user := range users {
		if err := d.mail.Send([]string{user.Email}, subject, body); err != nil {
			log.Printf("failed to send reminder to %s: %v", user.Email, err)
		}
	}
}
