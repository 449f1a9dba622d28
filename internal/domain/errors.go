package domain

import "errors"

// ErrCourseNotStarted a lesson was completed for a course without a progress record
var ErrCourseNotStarted = errors.New("Course has not been started")

// ErrCourseAlreadyStarted start was requested for a course that has progress, without reset
var ErrCourseAlreadyStarted = errors.New("Course has already been started")

// ErrStoreUnavailable the durable store failed to read or write
var ErrStoreUnavailable = errors.New("Progress store is unavailable")

// ErrInvariantViolation a write would break a progress record invariant
var ErrInvariantViolation = errors.New("Progress invariant violated")

// ErrUnknownCourse course id is not in the catalog
var ErrUnknownCourse = errors.New("No such course")

// ErrUnknownLesson lesson id does not belong to the course
var ErrUnknownLesson = errors.New("No such lesson in course")

// ErrCardNotFound flashcard does not exist or belongs to someone else
var ErrCardNotFound = errors.New("No such flashcard")

