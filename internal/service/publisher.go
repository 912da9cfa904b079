package service

// Темы push-уведомлений.
const (
	TopicUpdates   = "updates"
	TopicAnalytics = "analytics"
	TopicActivity  = "activity"
)

// События push-уведомлений.
const (
	EventFileUpdated      = "fileUpdated"
	EventActivityUpdated  = "activityUpdated"
	EventStatsUpdate      = "statsUpdate"
	EventAnalyticsUpdated = "analyticsUpdated"
)

// Publisher — рассылка событий подключённым клиентам.
// Реализация не блокирует вызывающего и не возвращает ошибок.
type Publisher interface {
	// Publish отправляет событие подписчикам темы.
	Publish(topic, event string, data any)
	// Broadcast отправляет событие всем клиентам.
	Broadcast(event string, data any)
	// ClientCount возвращает количество подключённых клиентов.
	ClientCount() int
}

// noopPublisher — Publisher без получателей.
type noopPublisher struct{}

func (noopPublisher) Publish(string, string, any) {}
func (noopPublisher) Broadcast(string, any)       {}
func (noopPublisher) ClientCount() int            { return 0 }

// orNoop возвращает p или Publisher без получателей.
func orNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
