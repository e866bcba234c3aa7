package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Internal        Category = "Internal"
	Mongo           Category = "Mongo"
	RabbitMQ        Category = "RabbitMQ"
	Feed            Category = "Feed"
	Reporter        Category = "Reporter"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"
	Subscription    SubCategory = "Subscription"
	Broadcast       SubCategory = "Broadcast"
	Sampling        SubCategory = "Sampling"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RoomId       ExtraKey = "RoomId"
	UserId       ExtraKey = "UserId"
	ErrorMessage ExtraKey = "ErrorMessage"
)
