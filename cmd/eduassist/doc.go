// Package main hosts the EduAssist CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API, queue maintenance operations, log tailing,
// generation requests, and configuration scaffolding. It centralizes
// configuration resolution, API client construction, and output rendering so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
// That separation keeps the CLI declarative while the heavy lifting lives in
// reusable workflow components.
package main
