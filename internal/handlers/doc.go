// Package handlers implements the HTTP and websocket layer of the priority-scheduler.
//
// Handlers only translate between the wire and the services layer. They never
// write application data to a websocket themselves: every reply is a task
// submitted to the scheduler by a service.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	│  - Websocket upgrade and read loop                              │
//	│  - Close codes on submission failure                            │
//	│  - Model-to-API conversion                                      │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Services Layer                             │
//	│  Echo │ Chat │ Status                                           │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Endpoints
//
//	┌────────┬───────────────────┬────────────────────────────────────────────┐
//	│ Method │ Endpoint          │ Description                                │
//	├────────┼───────────────────┼────────────────────────────────────────────┤
//	│ GET    │ /ws/echo          │ Websocket; each text frame is echoed back  │
//	│ GET    │ /ws/chat          │ Websocket; each text frame is broadcast    │
//	│ GET    │ /api/v1/scheduler │ Scheduler counters and open connections    │
//	└────────┴───────────────────┴────────────────────────────────────────────┘
//
// Routes are mounted with:
//
//	h := handlers.New(echoSrv, chatSrv, statusSrv, cfg.Hub.MaxMessageSize)
//	h.RegisterRoutes(router)
//
// # Websocket Close Codes
//
//	┌──────────────────────────────┬──────┬───────────────────────────────────┐
//	│ Cause                        │ Code │ Reason                            │
//	├──────────────────────────────┼──────┼───────────────────────────────────┤
//	│ SchedulerStoppedError        │ 1001 │ "server shutting down"            │
//	│ Any other submission error   │ 1011 │ "internal error"                  │
//	│ Frame above MaxMessageSize   │ 1009 │ written by gorilla/websocket      │
//	└──────────────────────────────┴──────┴───────────────────────────────────┘
//
// Binary frames are ignored.
//
// # Status Response
//
//	{
//	    "scheduler": {
//	        "name": "default",
//	        "mode": "worker-pool",
//	        "state": "running",
//	        "workers": 4,
//	        "liveWorkers": 4,
//	        "queued": 0,
//	        "active": 1,
//	        "executed": 120,
//	        "failed": 2,
//	        "rejected": 0
//	    },
//	    "hub": {
//	        "connections": 3,
//	        "echoConnections": 1
//	    }
//	}
package handlers
