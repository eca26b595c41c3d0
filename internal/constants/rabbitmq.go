package constants

// Имена объектов RabbitMQ
const (
	ParserExchange = "parser_exchange"

	QueueParseTasks      = "parse_tasks"
	RoutingKeyParseTasks = "parse.tasks"

	RoutingKeyRunReports = "parse.run_reports"
)
