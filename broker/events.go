package broker

type EventType string

// Event types double as NATS subjects, in <resource>.<action> format.
const (
	TaskCreated EventType = "task.created"
	TaskUpdated EventType = "task.updated"
	TaskDeleted EventType = "task.deleted"
)

// TaskEventsSubject matches every task lifecycle subject.
const TaskEventsSubject = "task.>"
