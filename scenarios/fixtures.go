package scenarios

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Service is satisfied by MyService and by anything that wraps it.
type Service interface {
	Identifier() int
	Collaborator() *ServiceB
}

// MyService is the primary fixture bean: an identifier plus an optional
// collaborator. It counts its initialization callbacks.
type MyService struct {
	ID       int
	ServiceB *ServiceB

	initCalls atomic.Int32
	logger    *zap.Logger
}

func (s *MyService) Identifier() int          { return s.ID }
func (s *MyService) Collaborator() *ServiceB { return s.ServiceB }

// SetLogger is injected through the "logger" property.
func (s *MyService) SetLogger(l *zap.Logger) { s.logger = l }

// AfterPropertiesSet runs once the container has populated ID and ServiceB.
func (s *MyService) AfterPropertiesSet() error {
	s.initCalls.Add(1)
	if s.logger != nil {
		s.logger.Info("calling init callback AfterPropertiesSet", zap.Int("id", s.ID))
	}
	return nil
}

// InitCalls reports how many times AfterPropertiesSet ran.
func (s *MyService) InitCalls() int { return int(s.initCalls.Load()) }

func (s *MyService) String() string {
	return fmt.Sprintf("MyService{id=%d, serviceB=%t}", s.ID, s.ServiceB != nil)
}

// MyServiceProxy stands in for a proxy produced by a post-processor. It embeds
// the original so it still reads as a MyService.
type MyServiceProxy struct {
	*MyService
}

// Original returns the wrapped instance.
func (p *MyServiceProxy) Original() *MyService { return p.MyService }

func (p *MyServiceProxy) String() string {
	return "MyService$proxy{" + p.MyService.String() + "}"
}

// ServiceB points back at MyService to close a cycle.
type ServiceB struct {
	MyService Service
}

func (b *ServiceB) String() string {
	if b.MyService == nil {
		return "ServiceB{myService=<nil>}"
	}
	return fmt.Sprintf("ServiceB{myService.id=%d}", b.MyService.Identifier())
}
