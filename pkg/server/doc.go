// Package server manages the lifecycle of one hosted web application.
//
// A Server validates its construction arguments, snapshots the application's
// configuration file, and on Start creates a fresh isolation domain with a
// listening host inside it. Stop tears the domain down and restores the
// configuration file byte for byte.
//
//	srv, err := server.New("./site", "/app/", server.WithPort(8080))
//	if err != nil {
//		return err
//	}
//	srv.AlterApplicationSetting("Mode", "test")
//	if err := srv.Start(); err != nil {
//		return err
//	}
//	defer srv.Stop()
//
// Requests are served one at a time on a single goroutine per server.
// Independent servers run in parallel on distinct ports.
package server
