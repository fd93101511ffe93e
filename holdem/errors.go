package holdem

type UnknownCommandError string

func (e UnknownCommandError) Error() string { return "unknown command: " + string(e) }
