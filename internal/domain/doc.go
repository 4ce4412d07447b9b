// Package domain defines the core business entities, state machines
// and errors of the learner progress service.
package domain
