package trader

//
// Service generically provides an interface to any isolated service in the software.
//
type Service interface {

	//
	// Start fires up the service. Starting a service that is already running fails. A channel that
	// can be blocked on for a "true" value – which indicates that start up is complete – is
	// returned.
	//
	Start() (<-chan bool, error)

	//
	// Stop tells the service to shut down. Stopping a service that is not running fails. A channel
	// that can be blocked on for a "true" value – which indicates that shut down is complete – is
	// returned.
	//
	Stop() (<-chan bool, error)
}

//
// StartAll starts the provided services in order and waits for each one to finish starting before
// moving on to the next. If one fails to start, the services that were already started are
// stopped again (in reverse order) and the error is returned.
//
func StartAll(services ...Service) error {
	for i, service := range services {
		chStarted, err := service.Start()
		if err != nil {
			_ = StopAll(services[:i]...)

			return err
		}

		<-chStarted
	}

	return nil
}

//
// StopAll stops the provided services in reverse order, waiting for each one to completely shut
// down before moving on to the next. Every service is stopped even if some fail to be.
//
func StopAll(services ...Service) error {
	var firstErr error

	for i := len(services) - 1; i >= 0; i-- {
		chStopped, err := services[i].Stop()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		<-chStopped
	}

	return firstErr
}
