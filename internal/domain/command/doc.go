// Package command defines the closed set of scheduler commands and the
// parser that turns one input line into one typed Command.
//
// Grammar, one command per line:
//
//	Start_Alarm(<id>): Group(<gid>) <seconds> <message>
//	Change_Alarm(<id>): Group(<gid>) <seconds> <message>
//	Cancel_Alarm(<id>)
//	Suspend_Alarm(<id>)
//	Reactivate_Alarm(<id>)
//	View_Alarms
package command
