package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/config"
	"github.com/hivectl/backend/internal/core/decoder"
	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/core/services"
	"github.com/hivectl/backend/internal/infrastructure/db"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/hivectl/backend/internal/transport/http/handlers"
	httpmw "github.com/hivectl/backend/internal/transport/http/middleware"
	"github.com/hivectl/backend/internal/transport/ws"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
	Hub    *ws.Hub
}

// Services exposes what the server needs after the routes are mounted.
type Services struct {
	Logs   ports.LogService
	Agents ports.AgentService
	Tasks  ports.TaskService
	Fleet  ports.FleetService
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) Services {
	// Initialize repositories
	agentRepo := db.NewAgentRepository(cfg.DB, cfg.Logger)
	taskRepo := db.NewTaskRepository(cfg.DB, cfg.Logger)
	logRepo := db.NewLogRepository(cfg.DB, cfg.Logger)

	prompt := cfg.Config.Console.ServerPrompt

	// Initialize services
	logService := services.NewLogService(services.LogServiceConfig{
		Repository: logRepo,
		Bus:        cfg.Hub,
		Logger:     cfg.Logger,
	})

	agentService := services.NewAgentService(services.AgentServiceConfig{
		Repository:   agentRepo,
		Bus:          cfg.Hub,
		Logs:         logService,
		Logger:       cfg.Logger,
		DefaultDelay: cfg.Config.Agent.DefaultDelay,
		ServerPrompt: prompt,
	})

	taskService := services.NewTaskService(services.TaskServiceConfig{
		Repository:   taskRepo,
		Agents:       agentService,
		Decoder:      decoder.New(cfg.Config.Agent.KeymonMaxCodes),
		Bus:          cfg.Hub,
		Logs:         logService,
		Logger:       cfg.Logger,
		ServerPrompt: prompt,
	})

	fleetService := services.NewFleetService(services.FleetServiceConfig{
		Agents: agentService,
		Tasks:  taskService,
		Logs:   logService,
		Logger: cfg.Logger,
	})

	dispatcher := services.NewDispatcher(services.DispatcherConfig{
		Agents:       agentService,
		Tasks:        taskService,
		Fleet:        fleetService,
		Bus:          cfg.Hub,
		Logger:       cfg.Logger,
		ServerPrompt: prompt,
	})

	// Initialize handlers
	agentHandler := handlers.NewAgentHandler(fleetService, cfg.Logger)
	fleetHandler := handlers.NewFleetHandler(agentService, taskService, fleetService, cfg.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Logger)
	logHandler := handlers.NewLogHandler(logService)
	consoleHandler := handlers.NewConsoleHandler(cfg.Hub, dispatcher, taskService, cfg.Logger)

	// Operator console
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/console", httpmw.OperatorAuth(cfg.Config), websocket.New(consoleHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1")

	// Agent routes. The auth is per route so it does not leak onto /agents.
	agentAuth := httpmw.AgentAuth(cfg.Config)
	agent := api.Group("/agent")
	agent.Post("/register", agentAuth, agentHandler.Register)
	agent.Get("/tasks/:id", agentAuth, agentHandler.Poll)
	agent.Post("/tasks/:id", agentAuth, agentHandler.SubmitResults)
	agent.Get("/ping/:id", agentAuth, agentHandler.Ping)

	operator := httpmw.OperatorAuth(cfg.Config)

	agents := api.Group("/agents", operator)
	agents.Get("/", fleetHandler.ListAgents)
	agents.Get("/:id", fleetHandler.GetAgent)
	agents.Post("/:id/freeze", fleetHandler.Freeze)
	agents.Post("/:id/unfreeze", fleetHandler.Unfreeze)
	agents.Delete("/:id", fleetHandler.DeleteAgent)
	agents.Get("/:id/tasks", fleetHandler.AgentTasks)
	agents.Delete("/:id/tasks/:taskId", taskHandler.DeleteTask)

	tasks := api.Group("/tasks", operator)
	tasks.Get("/", taskHandler.ListTasks)
	tasks.Post("/", taskHandler.CreateTask)

	api.Get("/logs", operator, logHandler.GetLogs)

	return Services{
		Logs:   logService,
		Agents: agentService,
		Tasks:  taskService,
		Fleet:  fleetService,
	}
}
