package classroom

import "context"

// Repository loads and persists the class aggregate. Implementations must write
// the class row, its enrollments and lesson unlocks together or not at all.
type Repository interface {
	// FindByID loads the class row only; the result must not be mutated and saved.
	FindByID(ctx context.Context, id string) (*Class, error)
	// FindByIDWithEnrollments loads the class with every child needed for mutation.
	FindByIDWithEnrollments(ctx context.Context, id string) (*Class, error)
	Save(ctx context.Context, class *Class) error
	SaveAttendance(ctx context.Context, attendance *Attendance) error
	SaveCreditAdjustment(ctx context.Context, adjustment *CreditAdjustment) error
	FindAttendanceByID(ctx context.Context, id string) (*Attendance, error)
}

// EventPublisher hands events drained from an aggregate to a transport.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}
