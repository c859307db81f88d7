package jobqueue

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/launchkit/launchkit/internal/pkg/env"
)

// Manager manages the global job queue and its processors
type Manager struct {
	queue   *Queue
	mu      sync.Mutex
	running bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if raw := env.GetEnv("JOB_QUEUE_WORKERS", ""); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				workerCount = parsed
			}
		}

		queue := NewQueue(workerCount)
		queue.RegisterProcessor(JobTypeSendEmail, ProcessEmailJob)

		globalManager = &Manager{queue: queue}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue workers
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true

	log.Info("[JobQueue Manager] Starting job queue")
	m.queue.Start()
	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue workers
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false

	log.Info("[JobQueue Manager] Stopping job queue...")
	m.queue.Stop()
	log.Info("[JobQueue Manager] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// EnqueueWelcomeEmail queues a welcome email for a newly activated user.
func EnqueueWelcomeEmail(to, name string) error {
	payload := EmailJobPayload{Kind: EmailKindWelcome, To: to, Name: name}
	_, err := GetManager().GetQueue().EnqueueJob(JobTypeSendEmail, payload.ToMap())
	return err
}

// EnqueueActivationEmail queues an account activation email.
func EnqueueActivationEmail(to, name, token string) error {
	payload := EmailJobPayload{Kind: EmailKindActivation, To: to, Name: name, ActivationToken: token}
	_, err := GetManager().GetQueue().EnqueueJob(JobTypeSendEmail, payload.ToMap())
	return err
}
