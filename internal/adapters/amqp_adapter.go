// Package adapters exposes optional infrastructure through the ports the
// services and the worker depend on.
package adapters

import (
	"smartsave/internal/amqp"
	"smartsave/internal/services"
	"smartsave/internal/worker"
)

// TransactionPublisher returns client as a services.Publisher. A nil client
// yields a nil interface, not a typed nil, so the service sees that
// publishing is disabled.
func TransactionPublisher(client *amqp.Client) services.Publisher {
	if client == nil {
		return nil
	}
	return client
}

// AlertPublisher returns client as a worker.AlertPublisher, or nil.
func AlertPublisher(client *amqp.Client) worker.AlertPublisher {
	if client == nil {
		return nil
	}
	return client
}
