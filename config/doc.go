// Package config provides a step registry and YAML definitions of tasks and runners.
//
// Register steps by name, then define tasks and runners that reference those names.
// Steps registered with RegisterFactory take args:
//
//	logging:
//	  level: debug
//	tasks:
//	  status:
//	    pre:
//	      - name: http.get
//	        args:
//	          url: https://api.example.com/status
//	    action: json.parse
//	    post:
//	      - name: expect.field
//	        args: {key: status, value: ok}
//	runners:
//	  health:
//	    tasks: [status]
//	    concurrent: true
//	    ignore_errors: true
//	    schedule: "*/5 * * * *"
//
// Build every entity with Build(registry, file, opts...) and hand the Set to a
// schedule.Scheduler with Set.Schedule.
package config
