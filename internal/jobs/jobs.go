package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Stable job ids. main registers the matching tasks before calling
// StartJobs.
const (
	JobSourceSweep    = "source-sweep"
	JobSessionCleanup = "session-cleanup"
)

// StartJobs starts the background job scheduler. All periodic work
// funnels through the JobManager so scheduled and manually triggered
// runs obey the same single-job gate.
func StartJobs(app JobContext) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startSourceSweepJob(s, app)
	startSessionCleanupJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
}

func startSourceSweepJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().ScanInterval
	if interval == 0 {
		log.Println("Scan interval is 0, the scheduled source sweep is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", JobSourceSweep, interval)
	_, err := s.Every(interval).Minutes().Do(func() {
		log.Println("Scheduler is triggering job:", JobSourceSweep)
		if err := app.JobManager().RunJob(JobSourceSweep, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", JobSourceSweep, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", JobSourceSweep, err)
	}
}

func startSessionCleanupJob(s *gocron.Scheduler, app JobContext) {
	_, err := s.Every(12).Hours().Do(func() {
		if err := app.JobManager().RunJob(JobSessionCleanup, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", JobSessionCleanup, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", JobSessionCleanup, err)
	}
}
