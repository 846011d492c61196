// Package jobs persists the generation job queue in SQLite.
//
// Each job represents one queued artifact request (slide deck, question
// paper, or lab manual) and carries its lifecycle status, the LLM plan
// produced while drafting, progress fields surfaced to the CLI and API, and a
// heartbeat timestamp used to reclaim work from crashed stages. The Store is
// the only writer; workflow stages mutate the Job value and persist it via
// Update.
package jobs
