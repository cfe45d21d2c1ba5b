// Package core provides the built-in actions of the decision agent.
//
// Actions:
//   - go_to_mac_login_logs: pull macOS unified-log auth entries and summarize
//   - say_hello: greet a person by name
//   - ask_clarification: fallback when no other action fits
package core
