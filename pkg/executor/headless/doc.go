// Package headless runs the course automation without the terminal UI.
//
// A Runner loads a YAML Profile, overlays it onto the persisted settings
// without saving, opens the course in a browser and starts the automation
// as soon as the course page attaches. Course events are printed by the
// console relay; the runner's Logger prints setup steps and a final summary.
//
// Example profile:
//
//	course_url: https://jkodirect.jten.mil/
//	browser:
//	  headless: false
//	settings:
//	  progress_threshold: 95
//	  max_retries: 5
//	nats:
//	  url: nats://localhost:4222
//	  serve_control: true
//	timeout: 4h
//	artifacts:
//	  enabled: true
//	  output_dir: .coursepilot/runs
//
// The run ends when the target is reached (status "finished"), when the
// context is cancelled ("interrupted"), or on timeout or setup failure
// ("failed").
package headless
