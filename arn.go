package pgtrigger

import (
	"fmt"
	"strings"
)

// DeriveLambdaARN constructs the invocation target identity for a function
// deployed in the given region and account. This is a pure string template;
// no AWS API calls are made.
func DeriveLambdaARN(region, accountID, functionName string) string {
	return fmt.Sprintf("arn:%s:lambda:%s:%s:function:%s", partitionForRegion(region), region, accountID, functionName)
}

func partitionForRegion(region string) string {
	switch {
	case strings.HasPrefix(region, "cn-"):
		return "aws-cn"
	case strings.HasPrefix(region, "us-gov-"):
		return "aws-us-gov"
	default:
		return "aws"
	}
}
