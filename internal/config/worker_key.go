package config

type WorkerKeyStruct struct {
	OTPMailQueue string
}

var WorkerKey = &WorkerKeyStruct{
	OTPMailQueue: "otp_mail_queue",
}
