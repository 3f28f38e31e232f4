package config

// WorkerKeyStruct names the Redis lists the background workers consume.
type WorkerKeyStruct struct {
	GradingJobsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GradingJobsQueue: "grading_jobs_queue",
}
