package hal

import "time"

// RegisterAccess defines set of methods that higher level drivers use to talk to a register based module
type RegisterAccess interface {
	GetRegValue(reg RegAddress, msb uint8, lsb uint8) (uint8, error)
	SetRegValue(reg RegAddress, value uint8, msb uint8, lsb uint8, checkInterval time.Duration) error
	ReadRegister(reg RegAddress) (uint8, error)
	WriteRegister(reg RegAddress, data uint8) error
	ReadRegisterBurst(reg RegAddress, numBytes int) ([]byte, error)
	WriteRegisterBurst(reg RegAddress, data []byte) error
}

// CommandChannel defines set of methods that higher level drivers use to talk to an AT command based module
type CommandChannel interface {
	ATSendCommand(cmd string) error
	ATSendData(data []byte) error
}
